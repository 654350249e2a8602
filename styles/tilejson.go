package styles

// TileJSON is the tile-metadata descriptor published at a style's info
// endpoint (spec.md §3 "tileJSON", §6 info endpoint).
type TileJSON struct {
	TileJSONVersion string    `json:"tilejson"`
	Name            string    `json:"name"`
	Scheme          string    `json:"scheme"`
	Tiles           []string  `json:"tiles"`
	MinZoom         int       `json:"minzoom"`
	MaxZoom         int       `json:"maxzoom"`
	Bounds          []float64 `json:"bounds,omitempty"`
	Center          []float64 `json:"center,omitempty"`
	Attribution     string    `json:"attribution,omitempty"`
	Format          string    `json:"format,omitempty"`
}

// buildTileJSON assembles the published tileJSON from the style's name
// and the merged per-source metadata gathered during registration.
func buildTileJSON(name string, minZoom, maxZoom int, bounds, center []float64, attribution, format string) *TileJSON {
	return &TileJSON{
		TileJSONVersion: "2.2.0",
		Name:            name,
		Scheme:          "xyz",
		Tiles:           nil, // populated per-endpoint with the request's own host/scheme
		MinZoom:         minZoom,
		MaxZoom:         maxZoom,
		Bounds:          bounds,
		Center:          center,
		Attribution:     attribution,
		Format:          format,
	}
}
