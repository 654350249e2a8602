package glstyle

import (
	"fmt"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
)

// ArchiveScheme identifies which of the two tile-archive container formats
// a rewritten source URL points at.
type ArchiveScheme string

const (
	SchemeArchiveA ArchiveScheme = "archiveA"
	SchemeArchiveB ArchiveScheme = "archiveB"
)

// sourceURLPrefixes maps the style.json URL scheme prefix to the archive
// kind it names, per spec.md §4.1.
var sourceURLPrefixes = map[ArchiveScheme]string{
	SchemeArchiveA: "archiveA://",
	SchemeArchiveB: "archiveB://",
}

// ParseSourceURL strips an archiveA://{name} or archiveB://{name} scheme
// from a source's "url" field, unwrapping the optional {name} placeholder.
// It returns ok=false if the URL does not use either scheme (e.g. it's a
// bare HTTP(S) URL, which is left untouched by the style loader).
func ParseSourceURL(rawURL string) (scheme ArchiveScheme, name string, ok bool) {
	for s, prefix := range sourceURLPrefixes {
		if !strings.HasPrefix(rawURL, prefix) {
			continue
		}
		rest := strings.TrimPrefix(rawURL, prefix)
		rest = strings.TrimPrefix(rest, "{")
		rest = strings.TrimSuffix(rest, "}")
		return s, rest, true
	}
	return "", "", false
}

// TileTemplate builds the single synthetic tile URL template a source's
// "tiles" field is replaced with after registration (spec.md §4.1 step 3).
func TileTemplate(scheme ArchiveScheme, name, format string) string {
	if format == "" {
		format = "pbf"
	}
	return fmt.Sprintf("%s://%s/{z}/{x}/{y}.%s", scheme, name, format)
}

// RewriteSpriteURI expands a relative sprite URI into the sprites:// scheme
// the Resource Resolver understands, expanding {style} and
// {styleJsonFolder} placeholders (spec.md §4.1).
func RewriteSpriteURI(sprite, styleID, styleJSONFolder string) string {
	return rewriteRelativeURI(sprite, "sprites", styleID, styleJSONFolder)
}

// RewriteGlyphsURI expands a relative glyphs URI into the fonts:// scheme.
func RewriteGlyphsURI(glyphs, styleID, styleJSONFolder string) string {
	return rewriteRelativeURI(glyphs, "fonts", styleID, styleJSONFolder)
}

func rewriteRelativeURI(uri, scheme, styleID, styleJSONFolder string) string {
	if uri == "" {
		return ""
	}
	if strings.Contains(uri, "://") {
		// already absolute (e.g. mapbox://, http(s)://): leave alone.
		return uri
	}

	expanded := strings.ReplaceAll(uri, "{style}", styleID)
	expanded = strings.ReplaceAll(expanded, "{styleJsonFolder}", styleJSONFolder)
	expanded = strings.TrimPrefix(expanded, "/")

	return fmt.Sprintf("%s://%s", scheme, expanded)
}

// DedupeAttributions joins a set of attribution strings, deduplicated and
// order-preserving, with " | " (spec.md §4.1 step 5).
func DedupeAttributions(attributions []string) string {
	seen := make(map[string]bool, len(attributions))
	var out []string
	for _, a := range attributions {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return strings.Join(out, " | ")
}

// ValidateDataProjection enforces the Design Note 9 resolution of the
// "multiple sources declare different projections" open question: reject
// registration outright.
func ValidateDataProjection(proj4sSeen []string) errorsx.Error {
	distinct := make(map[string]bool)
	for _, p := range proj4sSeen {
		if p != "" {
			distinct[p] = true
		}
	}
	if len(distinct) > 1 {
		return errorsx.Wrap(apperr.ErrFatalConfig, "distinctProj4Count", len(distinct), "reason", "style declares multiple distinct proj4 definitions across its sources; only one data projection per style is supported")
	}
	return nil
}
