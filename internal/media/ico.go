package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	ico "github.com/sergeymakinen/go-ico"
)

// IconSizes is the resolution ladder embedded in every icon.
var IconSizes = []int{256, 128, 64, 32}

// IconFrame scales img to fit a size×size square, keeping its aspect
// ratio, centred on a transparent canvas. Smaller sources are upscaled.
func IconFrame(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := float64(size) / math.Max(float64(w), float64(h))
	fw := max(1, int(math.Round(float64(w)*scale)))
	fh := max(1, int(math.Round(float64(h)*scale)))

	scaled := imaging.Resize(img, fw, fh, imaging.Lanczos)
	canvas := imaging.New(size, size, color.NRGBA{})
	return imaging.PasteCenter(canvas, scaled)
}

// EncodeICO writes img as an icon holding one square frame per size.
// Decoding goes through the "ico" format that go-ico registers with the
// image package.
func EncodeICO(w io.Writer, img image.Image, sizes []int) error {
	if len(sizes) == 0 {
		return errors.New("ico: no sizes requested")
	}

	frames := make([]image.Image, len(sizes))
	for i, size := range sizes {
		if size < 1 || size > 256 {
			return fmt.Errorf("ico: invalid size %d", size)
		}
		frames[i] = IconFrame(img, size)
	}
	if err := ico.EncodeAll(w, frames); err != nil {
		return fmt.Errorf("ico: %w", err)
	}
	return nil
}
