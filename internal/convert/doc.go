// Package convert routes conversion requests to the component that can
// perform them.
//
// A request is an input path and a target token. The router validates the
// pair against the capability catalog, computes the output path, resolves
// one Route and hands the work to the matching collaborator. Validation
// never touches the filesystem, and every outcome, success or failure, is
// returned as a Result so a caller can run many conversions without one
// failure stopping the rest.
//
// Output naming follows one of two conventions, chosen per Router:
//
//	Suffixed  photo.png -> photo_meta.ico  (default; same-format requests proceed)
//	InPlace   photo.png -> photo.ico       (same-format requests are ignored)
package convert
