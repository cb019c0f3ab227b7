package media

import (
	"fmt"
	"image"
	"image/color"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// ColorMode names the channel layout of a decoded image, using the names
// common to image tooling.
type ColorMode string

const (
	// ModeRGB is an opaque colour image.
	ModeRGB ColorMode = "RGB"
	// ModeRGBA is a colour image with at least one translucent pixel.
	ModeRGBA ColorMode = "RGBA"
	// ModeGray is a single-channel grayscale image.
	ModeGray ColorMode = "L"
	// ModePalette is an opaque paletted image.
	ModePalette ColorMode = "P"
	// ModePaletteAlpha is a paletted image with translucent entries.
	ModePaletteAlpha ColorMode = "PA"
	// ModeCMYK is a CMYK image.
	ModeCMYK ColorMode = "CMYK"
)

// HasAlpha reports whether images in this mode carry transparency.
func (m ColorMode) HasAlpha() bool {
	return m == ModeRGBA || m == ModePaletteAlpha
}

// ModeOf classifies a decoded image.
func ModeOf(img image.Image) ColorMode {
	switch m := img.(type) {
	case *image.YCbCr:
		return ModeRGB
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.CMYK:
		return ModeCMYK
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return ModePaletteAlpha
			}
		}
		return ModePalette
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return ModeRGB
	}
	return ModeRGBA
}

// Open decodes the image at path without any orientation or colour
// conversion, so ModeOf sees the source's native layout.
func Open(path string) (image.Image, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	logging.Debug("Decoded %s: %dx%d mode %s", path, img.Bounds().Dx(), img.Bounds().Dy(), ModeOf(img))
	return img, nil
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
	Format string
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
	}, nil
}

// toRGB copies img into an opaque RGBA image. Sources with alpha should be
// flattened instead.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(bl >> 8),
				A: 0xff,
			})
		}
	}
	return dst
}
