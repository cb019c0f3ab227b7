package convert

import (
	"metamorphosis/internal/catalog"
)

// Route is the transformation chosen for a request.
type Route int

const (
	// RouteNone is set on results that failed before routing.
	RouteNone Route = iota
	// RouteBook renders an e-book to PDF.
	RouteBook
	// RouteBackground removes an image background.
	RouteBackground
	// RouteAudioExtract writes the audio track of a clip.
	RouteAudioExtract
	// RouteAnimation renders a clip as an animated GIF.
	RouteAnimation
	// RouteVideo re-encodes a clip as video.
	RouteVideo
	// RouteImage re-encodes a still image.
	RouteImage
)

var routeNames = [...]string{
	RouteNone:         "none",
	RouteBook:         "book",
	RouteBackground:   "background",
	RouteAudioExtract: "audio",
	RouteAnimation:    "animation",
	RouteVideo:        "video",
	RouteImage:        "image",
}

func (r Route) String() string {
	if int(r) < len(routeNames) {
		return routeNames[r]
	}
	return "unknown"
}

// Routes lists every concrete route.
func Routes() []Route {
	return []Route{RouteBook, RouteBackground, RouteAudioExtract, RouteAnimation, RouteVideo, RouteImage}
}

const onlyPDFForBooks = "only .pdf is supported for e-books"

// ResolveRoute selects the route for a source extension and target.
// E-books are checked first, then the background mode, then clips, then
// still images. Pairs the catalog does not declare reachable fail with
// UnsupportedCombination.
func ResolveRoute(sourceExt string, target catalog.Target) (Route, error) {
	category := catalog.CategoryOf(sourceExt)
	if category == catalog.CategoryUnknown {
		return RouteNone, newError(UnsupportedSource, "unsupported source format: %s", displayExt(sourceExt))
	}

	if category == catalog.CategoryEBook {
		if target.Mode != catalog.ModeNone || target.Ext != ".pdf" {
			return RouteNone, newError(UnsupportedCombination, onlyPDFForBooks)
		}
		return RouteBook, nil
	}

	if !catalog.Reachable(sourceExt, target) {
		return RouteNone, unsupportedCombination(sourceExt, target.Token)
	}

	if target.Mode == catalog.ModeRemoveBackground {
		return RouteBackground, nil
	}

	switch category {
	case catalog.CategoryVideo, catalog.CategoryAudio:
		switch target.Category {
		case catalog.CategoryAudio:
			return RouteAudioExtract, nil
		case catalog.CategoryVideo:
			if target.Ext == ".gif" {
				return RouteAnimation, nil
			}
			return RouteVideo, nil
		}
	case catalog.CategoryImage:
		return RouteImage, nil
	}

	return RouteNone, unsupportedCombination(sourceExt, target.Token)
}

func unsupportedCombination(sourceExt, target string) *Error {
	return newError(UnsupportedCombination, "unsupported combination: %s -> %s", displayExt(sourceExt), target)
}

func displayExt(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return ext
}
