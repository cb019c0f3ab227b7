package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir returns the regular files directly inside dir for which keep
// returns true, sorted by name. Hidden files are skipped; in-progress
// outputs are written under hidden names.
func ScanDir(dir string, keep func(path string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if keep == nil || keep(path) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}
