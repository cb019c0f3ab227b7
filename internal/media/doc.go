// Package media implements the static-image route: decoding a source
// image, normalizing its colour mode for the requested target and writing
// it with the target's save strategy.
//
// Decoders are registered for PNG, JPEG, GIF, BMP, TIFF, WebP and ICO.
// Encoders:
//   - .jpg: JPEG at quality 95
//   - .png: PNG
//   - .bmp: 24-bit BMP
//   - .webp: WebP at quality 95 through libvips
//   - .ico: multi-resolution icon (256, 128, 64 and 32 px PNG entries)
//   - .pdf: single page at 100 DPI with the image embedded as JPEG
//
// Normalization follows two rules. Targets that cannot store alpha (JPEG,
// BMP, PDF) get translucent sources composited over white. Every other
// non-icon target gets palette, grayscale and CMYK sources coerced to RGB
// (or RGBA when the palette carries transparency).
package media
