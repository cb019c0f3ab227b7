package catalog

import "errors"

// ErrFeatureUnavailable is wrapped by route implementations when an
// optional subsystem (libvips, ffmpeg, rembg) is not installed.
var ErrFeatureUnavailable = errors.New("feature unavailable")
