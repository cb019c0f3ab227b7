package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Naming selects how output paths are derived from input paths.
type Naming int

const (
	// Suffixed writes name_meta.ext beside the input.
	Suffixed Naming = iota
	// InPlace writes name.ext beside the input.
	InPlace
)

// Suffix is appended to the base name under the Suffixed convention.
const Suffix = "_meta"

func (n Naming) String() string {
	if n == InPlace {
		return "in-place"
	}
	return "suffixed"
}

// ParseNaming parses a naming convention name.
func ParseNaming(s string) (Naming, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "suffixed", "suffix":
		return Suffixed, nil
	case "in-place", "inplace", "replace":
		return InPlace, nil
	}
	return Suffixed, fmt.Errorf("unknown naming convention %q", s)
}

// OutputPath returns the output path for input converted to ext. The
// result is always in the input's directory.
func OutputPath(input, ext string, naming Naming) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if naming == Suffixed {
		stem += Suffix
	}
	return filepath.Join(dir, stem+ext)
}
