package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"metamorphosis/internal/logging"
)

// WriteAtomic creates path with the bytes produced by write. Nothing
// appears at path unless write returns nil and the data reached disk.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	start := time.Now()
	defer func() {
		observeAtomicWrite(time.Since(start).Seconds(), err)
	}()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err == nil {
			return
		}
		if closeErr := tmp.Close(); closeErr != nil && !os.IsNotExist(closeErr) {
			logging.Debug("closing %s after failure: %v", tmpPath, closeErr)
		}
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.Warn("failed to remove temporary file %s: %v", tmpPath, removeErr)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// WriteFileAtomic is WriteAtomic for an in-memory payload.
func WriteFileAtomic(path string, data []byte) error {
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
