// Package catalog is the capability catalog of metamorphosis: the static
// table of which source extensions are understood and which targets are
// reachable from each of them.
//
// It is a dependency-free foundation imported by the router and by every
// route implementation, so it also carries the shared
// ErrFeatureUnavailable sentinel.
//
// # Categories
//
// Every known source extension belongs to exactly one Category:
//
//	catalog.CategoryImage  // .png .jpg .jpeg .webp .bmp .ico .tiff .tif
//	catalog.CategoryVideo  // .mp4 .mov .avi .mkv and the animated .gif
//	catalog.CategoryAudio  // .mp3 .wav
//	catalog.CategoryEBook  // .epub
//
// CategoryAIMode only appears on the target side: it groups the special
// modes (currently background removal) whose output extension is fixed.
//
// # Targets
//
// Targets are referred to by token. Plain tokens are extensions and are
// normalized to a lower-case, dot-prefixed form; special modes have a
// display token and a fixed output extension:
//
//	t, err := catalog.ParseTarget("jpg")                 // .jpg
//	t, err := catalog.ParseTarget(catalog.RemoveBackground) // .png, ModeRemoveBackground
//
// TargetsFor narrows the selectable targets once a source is known, and
// ListAllTargets returns the whole catalog for presentation.
package catalog
