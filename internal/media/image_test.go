package media

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// solid returns an opaque image filled with c.
func solid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// translucent returns an image whose left half is fully transparent and
// whose right half is opaque blue.
func translucent(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	return img
}

// createTestImage encodes img to path in the given format
func createTestImage(t *testing.T, path string, img image.Image, format string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}

	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestModeOf(t *testing.T) {
	opaquePalette := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	alphaPalette := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Transparent, color.White})

	tests := []struct {
		name string
		img  image.Image
		want ColorMode
	}{
		{"YCbCr", image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420), ModeRGB},
		{"Gray", image.NewGray(image.Rect(0, 0, 2, 2)), ModeGray},
		{"Gray16", image.NewGray16(image.Rect(0, 0, 2, 2)), ModeGray},
		{"CMYK", image.NewCMYK(image.Rect(0, 0, 2, 2)), ModeCMYK},
		{"Opaque palette", opaquePalette, ModePalette},
		{"Translucent palette", alphaPalette, ModePaletteAlpha},
		{"Opaque RGBA", solid(2, 2, color.RGBA{1, 2, 3, 255}), ModeRGB},
		{"Translucent NRGBA", translucent(4, 2), ModeRGBA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ModeOf(tt.img); got != tt.want {
				t.Errorf("ModeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestColorModeHasAlpha(t *testing.T) {
	for _, m := range []ColorMode{ModeRGBA, ModePaletteAlpha} {
		if !m.HasAlpha() {
			t.Errorf("%s should report alpha", m)
		}
	}
	for _, m := range []ColorMode{ModeRGB, ModeGray, ModePalette, ModeCMYK} {
		if m.HasAlpha() {
			t.Errorf("%s should not report alpha", m)
		}
	}
}

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()

	pngPath := filepath.Join(tmpDir, "alpha.png")
	createTestImage(t, pngPath, translucent(8, 4), "png")

	img, err := Open(pngPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := ModeOf(img); got != ModeRGBA {
		t.Errorf("ModeOf(decoded png) = %s, want %s", got, ModeRGBA)
	}

	jpgPath := filepath.Join(tmpDir, "photo.jpg")
	createTestImage(t, jpgPath, solid(8, 4, color.RGBA{10, 20, 30, 255}), "jpg")

	img, err = Open(jpgPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := ModeOf(img); got != ModeRGB {
		t.Errorf("ModeOf(decoded jpeg) = %s, want %s", got, ModeRGB)
	}
}

func TestOpenErrors(t *testing.T) {
	tmpDir := t.TempDir()

	bad := filepath.Join(tmpDir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"Nonexistent file", filepath.Join(tmpDir, "missing.png")},
		{"Corrupt file", bad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{"Small JPEG", 100, 50, "jpg"},
		{"Portrait PNG", 40, 120, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, path, solid(tt.width, tt.height, color.RGBA{A: 255}), tt.format)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions() error = %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("GetImageDimensions() = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensionsICO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.ico")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeICO(f, solid(10, 10, color.RGBA{R: 255, A: 255}), []int{64, 32}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dims, err := GetImageDimensions(path)
	if err != nil {
		t.Fatalf("GetImageDimensions() error = %v", err)
	}
	if dims.Format != "ico" || dims.Width != 64 {
		t.Errorf("GetImageDimensions() = %+v, want 64px ico", dims)
	}
}
