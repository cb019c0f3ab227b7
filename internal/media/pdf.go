package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

const pointsPerInch = 72.0

// EncodePDF writes img as a single-page PDF. The page is sized so the
// image renders at dpi; the image is embedded as an RGB JPEG.
func EncodePDF(w io.Writer, img image.Image, dpi float64) error {
	if ModeOf(img).HasAlpha() {
		img = Flatten(img, color.White)
	}

	var jpg bytes.Buffer
	if err := imaging.Encode(&jpg, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode pdf page image: %w", err)
	}

	b := img.Bounds()
	width := float64(b.Dx()) * pointsPerInch / dpi
	height := float64(b.Dy()) * pointsPerInch / dpi

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("metamorphosis", true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("page", opts, &jpg)
	pdf.ImageOptions("page", 0, 0, width, height, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	return pdf.Output(w)
}
