// Package glstyle parses Mapbox GL style documents far enough to drive
// registration: resolving and rewriting source/sprite/glyph URIs, flattening
// 3D extrusion paint properties, and collecting attribution text. It does
// not interpret paint/layout properties for drawing — that is the headless
// renderer's job.
package glstyle

import (
	"encoding/json"

	"github.com/jamesrr39/goutil/errorsx"
)

// Source is a style source object. Unknown/unused keys round-trip through
// the underlying map so registration can rewrite just the fields it cares
// about (type, url, tiles, attribution, bounds/center/zoom/proj4) without
// losing anything the renderer itself needs later.
type Source map[string]interface{}

func (s Source) stringField(key string) string {
	v, ok := s[key]
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// Type returns the source's "type" field (e.g. "vector", "raster").
func (s Source) Type() string { return s.stringField("type") }

// URL returns the source's "url" field.
func (s Source) URL() string { return s.stringField("url") }

// Attribution returns the source's "attribution" field.
func (s Source) Attribution() string { return s.stringField("attribution") }

// Proj4 returns the source's "proj4" field, if any.
func (s Source) Proj4() string { return s.stringField("proj4") }

// SetTiles overwrites the "tiles" field with a single synthetic template.
func (s Source) SetTiles(template string) {
	s["tiles"] = []string{template}
}

// SetAttribution overwrites the "attribution" field.
func (s Source) SetAttribution(attribution string) {
	if attribution == "" {
		return
	}
	s["attribution"] = attribution
}

// MergeTileJSON copies tilejson-shaped fields from an archive's metadata
// into the source object, preserving the original "type".
func (s Source) MergeTileJSON(meta ArchiveMeta) {
	if len(meta.Bounds) == 4 {
		s["bounds"] = meta.Bounds
	}
	if len(meta.Center) >= 2 {
		s["center"] = meta.Center
	}
	if meta.MinZoom != nil {
		s["minzoom"] = *meta.MinZoom
	}
	if meta.MaxZoom != nil {
		s["maxzoom"] = *meta.MaxZoom
	}
	if meta.Format != "" {
		s["format"] = meta.Format
	}
	if meta.Proj4 != "" {
		s["proj4"] = meta.Proj4
	}
}

// Format returns the merged tilejson "format" field, defaulting to "pbf".
func (s Source) Format() string {
	f := s.stringField("format")
	if f == "" {
		return "pbf"
	}
	return f
}

// ArchiveMeta is the subset of an archive's GetInfo() response the style
// loader merges into a source object (spec.md §4.1 step 3).
type ArchiveMeta struct {
	Bounds  []float64
	Center  []float64
	MinZoom *float64
	MaxZoom *float64
	Format  string
	Proj4   string
}

// Layer is a style layer object, kept generic for the same reason Source
// is: this package only needs to read/rewrite a handful of fields.
type Layer map[string]interface{}

// FlattenExtrusion zeroes fill-extrusion-height/base paint properties,
// per spec.md §4.1 ("flatten 3D buildings").
func (l Layer) FlattenExtrusion() {
	paint, ok := l["paint"].(map[string]interface{})
	if !ok {
		return
	}
	if _, ok := paint["fill-extrusion-height"]; ok {
		paint["fill-extrusion-height"] = 0
	}
	if _, ok := paint["fill-extrusion-base"]; ok {
		paint["fill-extrusion-base"] = 0
	}
}

// Document is a parsed style.json document.
type Document struct {
	Version  int                `json:"version"`
	Name     string             `json:"name"`
	Sources  map[string]Source  `json:"sources"`
	Sprite   string             `json:"sprite,omitempty"`
	Glyphs   string             `json:"glyphs,omitempty"`
	Layers   []Layer            `json:"layers"`
	Metadata map[string]any     `json:"metadata,omitempty"`
}

// Parse decodes a style.json document.
func Parse(data []byte) (*Document, errorsx.Error) {
	var doc Document
	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if doc.Sources == nil {
		doc.Sources = make(map[string]Source)
	}

	return &doc, nil
}

// FlattenExtrusions applies Layer.FlattenExtrusion to every layer.
func (d *Document) FlattenExtrusions() {
	for _, layer := range d.Layers {
		layer.FlattenExtrusion()
	}
}

// Marshal re-serializes the (possibly rewritten) document, e.g. for
// handing to the headless renderer after source/sprite/glyph rewriting.
func (d *Document) Marshal() ([]byte, errorsx.Error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return b, nil
}
