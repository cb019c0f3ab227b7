package media

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

const (
	// JPEGQuality is the fixed quality for JPEG output.
	JPEGQuality = 95
	// WebPQuality is the fixed quality for WebP output.
	WebPQuality = 95
	// PDFResolution is the DPI used to size PDF pages.
	PDFResolution = 100.0
)

// Encoder writes a normalized image in one target format.
type Encoder func(w io.Writer, img image.Image) error

// encoders maps target extensions to their save strategy.
var encoders = map[string]Encoder{
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".png":  encodePNG,
	".bmp":  bmp.Encode,
	".webp": encodeWebP,
	".ico": func(w io.Writer, img image.Image) error {
		return EncodeICO(w, img, IconSizes)
	},
	".pdf": func(w io.Writer, img image.Image) error {
		return EncodePDF(w, img, PDFResolution)
	},
}

// EncoderFor returns the save strategy for ext.
func EncoderFor(ext string) (Encoder, error) {
	enc, ok := encoders[ext]
	if !ok {
		return nil, fmt.Errorf("no image encoder for %s", ext)
	}
	return enc, nil
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
}

func encodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

func encodeWebP(w io.Writer, img image.Image) error {
	data, err := EncodeWebP(img, WebPQuality)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
