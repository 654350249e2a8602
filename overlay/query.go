// Package overlay implements the Overlay Rasterizer from spec.md §4.5:
// parsing the path/marker query grammar, fetching marker icons, and
// drawing both onto an RGBA buffer aligned with the base render's camera.
package overlay

import (
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/twpayne/go-polyline"
)

// LngLat is a single overlay coordinate.
type LngLat struct {
	Lng, Lat float64
}

// PathStyle carries the per-path style overrides parsed from `fill:`,
// `stroke:`, `width:` tokens (spec.md §4.5, §6).
type PathStyle struct {
	Fill   string
	Stroke string
	Width  float64
}

// Path is one `path=` query value, decoded into coordinates plus its
// optional style overrides.
type Path struct {
	Points []LngLat
	Style  PathStyle
}

// Marker is one `marker=` query value.
type Marker struct {
	Location LngLat
	Icon     string
	Scale    float64
	OffsetX  float64
	OffsetY  float64
	Color    string
}

// ParseLatLng reports whether the latlng query parameter requests
// swapped (lat,lng) coordinate order, per spec.md §6/§8
// ("parseCoordinatePair with latlng=1 swaps order").
func ParseLatLng(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// parseCoordinatePair parses "a,b" into (lng,lat), swapping to (lat,lng)
// interpretation if latlng is set. Swapping twice is the identity
// (spec.md §8).
func parseCoordinatePair(s string, latlng bool) (LngLat, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return LngLat{}, errorsx.Errorf("malformed coordinate pair %q", s)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LngLat{}, errorsx.Wrap(err, "coordinate", s)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LngLat{}, errorsx.Wrap(err, "coordinate", s)
	}

	if latlng {
		return LngLat{Lng: b, Lat: a}, nil
	}
	return LngLat{Lng: a, Lat: b}, nil
}

// ParsePath parses one `path=` query value (spec.md §6): either
// `enc:<polyline>` or `lng,lat|lng,lat|...`, optionally prefixed with
// `fill:`/`stroke:`/`width:` tokens separated by `|`.
func ParsePath(raw string, latlng bool, globalStyle PathStyle) (*Path, errorsx.Error) {
	style := globalStyle

	tokens := strings.Split(raw, "|")
	var rest []string
	for i, tok := range tokens {
		// '|' is part of the polyline alphabet, so an encoded path keeps
		// every token after "enc:" as one string.
		if strings.HasPrefix(tok, "enc:") {
			rest = append(rest, strings.Join(tokens[i:], "|"))
			break
		}
		switch {
		case strings.HasPrefix(tok, "fill:"):
			style.Fill = strings.TrimPrefix(tok, "fill:")
		case strings.HasPrefix(tok, "stroke:"):
			style.Stroke = strings.TrimPrefix(tok, "stroke:")
		case strings.HasPrefix(tok, "width:"):
			w, err := strconv.ParseFloat(strings.TrimPrefix(tok, "width:"), 64)
			if err != nil {
				return nil, errorsx.Wrap(err, "token", tok)
			}
			style.Width = w
		default:
			rest = append(rest, tok)
		}
	}

	var points []LngLat
	if len(rest) == 1 && strings.HasPrefix(rest[0], "enc:") {
		encoded := strings.TrimPrefix(rest[0], "enc:")
		coords, _, err := polyline.DecodeCoords([]byte(encoded))
		if err != nil {
			return nil, errorsx.Wrap(err, "polyline", encoded)
		}
		for _, c := range coords {
			// go-polyline decodes to [lat, lng] pairs.
			ll := LngLat{Lat: c[0], Lng: c[1]}
			if latlng {
				ll = LngLat{Lng: c[0], Lat: c[1]}
			}
			points = append(points, ll)
		}
	} else {
		for _, part := range rest {
			if strings.TrimSpace(part) == "" {
				continue
			}
			ll, err := parseCoordinatePair(part, latlng)
			if err != nil {
				return nil, errorsx.Wrap(err)
			}
			points = append(points, ll)
		}
	}

	return &Path{Points: points, Style: style}, nil
}

// ParseMarker parses one `marker=` query value: `<loc>|<icon>[|opt...]`
// with opts `scale:N`, `offset:X[,Y]`, `color:COLOR` (spec.md §6).
func ParseMarker(raw string, latlng bool) (*Marker, errorsx.Error) {
	tokens := strings.Split(raw, "|")
	if len(tokens) < 2 {
		return nil, errorsx.Errorf("malformed marker %q: need at least location|icon", raw)
	}

	loc, err := parseCoordinatePair(tokens[0], latlng)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	m := &Marker{Location: loc, Icon: tokens[1], Scale: 1}

	for _, tok := range tokens[2:] {
		switch {
		case strings.HasPrefix(tok, "scale:"):
			v, parseErr := strconv.ParseFloat(strings.TrimPrefix(tok, "scale:"), 64)
			if parseErr != nil {
				return nil, errorsx.Wrap(parseErr, "token", tok)
			}
			m.Scale = v
		case strings.HasPrefix(tok, "offset:"):
			offsetParts := strings.SplitN(strings.TrimPrefix(tok, "offset:"), ",", 2)
			x, parseErr := strconv.ParseFloat(offsetParts[0], 64)
			if parseErr != nil {
				return nil, errorsx.Wrap(parseErr, "token", tok)
			}
			m.OffsetX = x
			if len(offsetParts) == 2 {
				y, yErr := strconv.ParseFloat(offsetParts[1], 64)
				if yErr != nil {
					return nil, errorsx.Wrap(yErr, "token", tok)
				}
				m.OffsetY = y
			}
		case strings.HasPrefix(tok, "color:"):
			m.Color = strings.TrimPrefix(tok, "color:")
		}
	}

	return m, nil
}

// Query is the full set of overlay-related parameters accepted by
// overlay-capable endpoints (spec.md §6).
type Query struct {
	Paths           []*Path
	Markers         []*Marker
	Fill            string
	Stroke          string
	Width           float64
	Border          string
	BorderWidth     float64
	LineCap         string
	LineJoin        string
	Padding         float64
	LatLng          bool
	MaxZoom         float64
	AttributionText string
}

// IsEmpty reports whether the query has no overlay content at all, in
// which case the rasterizer produces no buffer (spec.md §4.5).
func (q *Query) IsEmpty() bool {
	return q == nil || (len(q.Paths) == 0 && len(q.Markers) == 0)
}
