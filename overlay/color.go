package overlay

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// DefaultStrokeColor is the stroke fallback when neither a per-path nor a
// global query color is set (spec.md §4.5).
var DefaultStrokeColor = color.RGBA{R: 0, G: 64, B: 255, A: uint8(math.Round(0.7 * 255))}

// ParseColor parses a "#RGB"/"#RGBA"/"#RRGGBB"/"#RRGGBBAA" or
// "rgba(r,g,b,a)"/"rgb(r,g,b)" CSS-ish color string, the two forms
// spec.md's query grammar and style defaults use. Unparseable input
// returns ok=false so callers can fall back to a default.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s)
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseFuncColor(s)
	default:
		return color.RGBA{}, false
	}
}

func parseHexColor(hex string) (color.RGBA, bool) {
	hex = strings.TrimPrefix(hex, "#")

	var r, g, b, a uint32
	a = 255

	switch len(hex) {
	case 3:
		parseHexDigits(hex[0:1], &r)
		parseHexDigits(hex[1:2], &g)
		parseHexDigits(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4:
		parseHexDigits(hex[0:1], &r)
		parseHexDigits(hex[1:2], &g)
		parseHexDigits(hex[2:3], &b)
		parseHexDigits(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6:
		parseHexDigits(hex[0:2], &r)
		parseHexDigits(hex[2:4], &g)
		parseHexDigits(hex[4:6], &b)
	case 8:
		parseHexDigits(hex[0:2], &r)
		parseHexDigits(hex[2:4], &g)
		parseHexDigits(hex[4:6], &b)
		parseHexDigits(hex[6:8], &a)
	default:
		return color.RGBA{}, false
	}

	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, true
}

func parseHexDigits(s string, val *uint32) {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		}
	}
}

func parseFuncColor(s string) (color.RGBA, bool) {
	open := strings.IndexByte(s, '(')
	closeIdx := strings.LastIndexByte(s, ')')
	if open < 0 || closeIdx < open {
		return color.RGBA{}, false
	}

	parts := strings.Split(s[open+1:closeIdx], ",")
	if len(parts) < 3 {
		return color.RGBA{}, false
	}

	r, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	g, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	b, err3 := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return color.RGBA{}, false
	}

	a := 1.0
	if len(parts) >= 4 {
		parsedA, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err == nil {
			a = parsedA
		}
	}

	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a * 255)}, true
}

// ColorOrDefault parses s, falling back to def if s is empty or invalid.
func ColorOrDefault(s string, def color.RGBA) color.RGBA {
	if s == "" {
		return def
	}
	if c, ok := ParseColor(s); ok {
		return c
	}
	return def
}
