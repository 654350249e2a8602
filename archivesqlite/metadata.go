package archivesqlite

import (
	"strconv"
	"strings"

	"github.com/ownmap/tileserver/archive"
)

// applyMetadata fills in info's bounds/center/format from the mbtiles
// metadata table's standard keys, where present; anything missing keeps
// its loadInfo default.
func applyMetadata(info *archive.Info, meta map[string]string) {
	if bounds, ok := parseFloats(meta["bounds"], 4); ok {
		info.Bounds = [4]float64{bounds[0], bounds[1], bounds[2], bounds[3]}
	}
	if center, ok := parseFloats(meta["center"], 2); ok {
		info.Center = [2]float64{center[0], center[1]}
	}
	if format := meta["format"]; format != "" {
		info.Format = format
	}
	if minZoom, ok := parseInt(meta["minzoom"]); ok {
		info.MinZoom = minZoom
	}
	if maxZoom, ok := parseInt(meta["maxzoom"]); ok {
		info.MaxZoom = maxZoom
	}
}

func parseFloats(s string, n int) ([]float64, bool) {
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}
