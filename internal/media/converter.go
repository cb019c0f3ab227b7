package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"
)

// Converter is the static-image route. It is stateless and safe for
// concurrent use.
type Converter struct{}

// NewConverter creates an image converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ConvertImage decodes input, normalizes it for the extension of output
// and writes output atomically.
func (c *Converter) ConvertImage(ctx context.Context, input, output string) error {
	ext := strings.ToLower(filepath.Ext(output))
	enc, err := EncoderFor(ext)
	if err != nil {
		return err
	}

	img, err := Open(input)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	img = Normalize(img, ext)

	logging.Debug("Saving %s as %s", filepath.Base(input), filepath.Base(output))
	if err := filesystem.WriteAtomic(output, func(w io.Writer) error {
		return enc(w, img)
	}); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(output), err)
	}
	return nil
}
