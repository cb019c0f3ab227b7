package media

import (
	"image"
	"image/color"

	"metamorphosis/internal/logging"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// alphaIncapable lists targets whose encoders cannot store transparency.
var alphaIncapable = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".pdf":  true,
}

// SupportsAlpha reports whether the target extension can store alpha.
func SupportsAlpha(ext string) bool {
	return !alphaIncapable[ext]
}

// Flatten composites img over an opaque background. The result is fully
// opaque, so encoders never see translucent pixels.
func Flatten(img image.Image, background color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Over)
	return dst
}

// Normalize prepares img for the encoder of ext.
func Normalize(img image.Image, ext string) image.Image {
	mode := ModeOf(img)

	switch {
	case !SupportsAlpha(ext) && mode.HasAlpha():
		logging.Debug("Flattening %s image onto white for %s", mode, ext)
		return Flatten(img, color.White)

	case ext != ".ico" && mode != ModeRGB && mode != ModeRGBA:
		if mode.HasAlpha() {
			logging.Debug("Converting %s image to RGBA for %s", mode, ext)
			return imaging.Clone(img)
		}
		logging.Debug("Converting %s image to RGB for %s", mode, ext)
		return toRGB(img)
	}

	return img
}
