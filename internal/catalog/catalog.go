package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Category identifies the processing family of a source or target.
type Category string

const (
	// CategoryImage covers still images handled by the image route.
	CategoryImage Category = "image"
	// CategoryVideo covers video clips and animations.
	CategoryVideo Category = "video"
	// CategoryAudio covers audio-only files.
	CategoryAudio Category = "audio"
	// CategoryEBook covers e-books.
	CategoryEBook Category = "ebook"
	// CategoryAIMode groups special transformations with a fixed output.
	CategoryAIMode Category = "ai"
	// CategoryUnknown is returned for extensions outside the catalog.
	CategoryUnknown Category = "unknown"
)

// Mode marks targets that are transformations rather than plain formats.
type Mode int

const (
	// ModeNone is a plain format conversion.
	ModeNone Mode = iota
	// ModeRemoveBackground strips the background and always writes PNG.
	ModeRemoveBackground
)

// RemoveBackground is the display token of the background removal mode.
const RemoveBackground = "PNG (No Background)"

// Target is a resolved target descriptor.
type Target struct {
	// Token is the canonical name shown to users (".jpg", RemoveBackground).
	Token string
	// Ext is the concrete output extension, lower-case with a leading dot.
	Ext string
	// Category is the family the target belongs to.
	Category Category
	// Mode is ModeNone for plain format conversions.
	Mode Mode
}

// sourceCategories maps every accepted source extension to its category.
var sourceCategories = map[string]Category{
	".png":  CategoryImage,
	".jpg":  CategoryImage,
	".jpeg": CategoryImage,
	".webp": CategoryImage,
	".bmp":  CategoryImage,
	".ico":  CategoryImage,
	".tiff": CategoryImage,
	".tif":  CategoryImage,

	".mp4": CategoryVideo,
	".mov": CategoryVideo,
	".avi": CategoryVideo,
	".mkv": CategoryVideo,
	".gif": CategoryVideo,

	".mp3": CategoryAudio,
	".wav": CategoryAudio,

	".epub": CategoryEBook,
}

// animatedExtensions are video-category sources without an audio track.
var animatedExtensions = map[string]bool{
	".gif": true,
}

// categoryTargets lists the reachable targets of each category in
// presentation order.
var categoryTargets = map[Category][]string{
	CategoryImage:  {".png", ".jpg", ".webp", ".ico", ".bmp", ".pdf"},
	CategoryAIMode: {RemoveBackground},
	CategoryVideo:  {".mp4", ".gif"},
	CategoryAudio:  {".mp3", ".wav"},
	CategoryEBook:  {".pdf"},
}

// modeAliases are the accepted spellings of special modes.
var modeAliases = map[string]string{
	strings.ToLower(RemoveBackground): RemoveBackground,
	"nobg":                            RemoveBackground,
	"remove-background":               RemoveBackground,
}

// MimeTypes maps catalog extensions to their MIME types.
var MimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".epub": "application/epub+zip",
}

// Ext returns the normalized extension of path: lower-case with a
// leading dot, or "" when path has none.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// NormalizeExt lower-cases ext and adds the leading dot if missing.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// IsValidSource reports whether path has an extension the catalog
// accepts. Only the name is inspected; the file need not exist.
func IsValidSource(path string) bool {
	_, ok := sourceCategories[Ext(path)]
	return ok
}

// CategoryOf returns the category of a source extension.
func CategoryOf(ext string) Category {
	if c, ok := sourceCategories[NormalizeExt(ext)]; ok {
		return c
	}
	return CategoryUnknown
}

// IsAnimated reports whether ext is an animation format with no audio.
func IsAnimated(ext string) bool {
	return animatedExtensions[NormalizeExt(ext)]
}

// SourceExtensions returns every accepted source extension, sorted.
func SourceExtensions() []string {
	exts := make([]string, 0, len(sourceCategories))
	for ext := range sourceCategories {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ListAllTargets returns the union of every category's targets,
// deduplicated and sorted lexicographically.
func ListAllTargets() []string {
	seen := make(map[string]bool)
	var all []string
	for _, targets := range categoryTargets {
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				all = append(all, t)
			}
		}
	}
	sort.Strings(all)
	return all
}

// TargetsFor returns the targets reachable from a source extension, in
// presentation order. Unknown extensions get the full catalog.
func TargetsFor(sourceExt string) []string {
	ext := NormalizeExt(sourceExt)
	var groups []Category

	switch CategoryOf(ext) {
	case CategoryImage:
		groups = []Category{CategoryImage, CategoryAIMode}
	case CategoryVideo:
		if IsAnimated(ext) {
			groups = []Category{CategoryVideo}
		} else {
			groups = []Category{CategoryVideo, CategoryAudio}
		}
	case CategoryAudio:
		groups = []Category{CategoryAudio}
	case CategoryEBook:
		groups = []Category{CategoryEBook}
	default:
		return ListAllTargets()
	}

	var targets []string
	for _, g := range groups {
		targets = append(targets, categoryTargets[g]...)
	}
	return targets
}

// ParseTarget resolves a target token. Extension tokens are normalized
// ("JPG" and "jpg" both become ".jpg"); special modes are matched by
// their display token or an alias.
func ParseTarget(token string) (Target, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Target{}, fmt.Errorf("empty target")
	}

	if name, ok := modeAliases[strings.ToLower(trimmed)]; ok {
		return Target{
			Token:    name,
			Ext:      ".png",
			Category: CategoryAIMode,
			Mode:     ModeRemoveBackground,
		}, nil
	}

	ext := NormalizeExt(trimmed)
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for _, c := range []Category{CategoryImage, CategoryVideo, CategoryAudio, CategoryEBook} {
		for _, t := range categoryTargets[c] {
			if t == ext {
				return Target{Token: ext, Ext: ext, Category: c}, nil
			}
		}
	}
	return Target{}, fmt.Errorf("unknown target %q", token)
}

// Reachable reports whether target is declared reachable from sourceExt.
func Reachable(sourceExt string, target Target) bool {
	if CategoryOf(sourceExt) == CategoryUnknown {
		return false
	}
	for _, t := range TargetsFor(sourceExt) {
		if t == target.Token {
			return true
		}
	}
	return false
}

// MimeType returns the MIME type for ext, or application/octet-stream.
func MimeType(ext string) string {
	if mime, ok := MimeTypes[NormalizeExt(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
