// Package background removes image backgrounds with the rembg tool.
//
// The source bytes are piped through `rembg i - -` and the returned PNG
// is written beside the input. rembg is an optional dependency; when it
// cannot be found the remover reports catalog.ErrFeatureUnavailable.
package background
