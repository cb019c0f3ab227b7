package background

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"metamorphosis/internal/catalog"
	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"
)

// DefaultCommand is the rembg executable looked up on PATH.
const DefaultCommand = "rembg"

// Remover runs background removal through an external rembg process.
type Remover struct {
	command       string
	available     bool
	availableOnce sync.Once
}

// New creates a Remover. An empty command uses DefaultCommand.
func New(command string) *Remover {
	if command == "" {
		command = DefaultCommand
	}
	return &Remover{command: command}
}

// Available reports whether the rembg executable can be found. The lookup
// happens once per Remover.
func (r *Remover) Available() bool {
	r.availableOnce.Do(func() {
		path, err := exec.LookPath(r.command)
		r.available = err == nil && path != ""
	})
	return r.available
}

// RemoveBackground writes input with its background removed to output as PNG.
func (r *Remover) RemoveBackground(ctx context.Context, input, output string) error {
	if !r.Available() {
		return fmt.Errorf("%w: %s not found", catalog.ErrFeatureUnavailable, r.command)
	}

	data, err := filesystem.ReadFileWithRetry(input, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.command, "i", "-", "-")
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s failed for %q: %w: %s", r.command, filepath.Base(input), err, msg)
		}
		return fmt.Errorf("%s failed for %q: %w", r.command, filepath.Base(input), err)
	}
	if stdout.Len() == 0 {
		return errors.New("background removal returned no image data")
	}

	logging.Debug("Removed background from %s in %v", filepath.Base(input), time.Since(start))
	return filesystem.WriteFileAtomic(output, stdout.Bytes())
}
