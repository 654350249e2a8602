// Package mbglrender declares the contract for the headless vector-map
// renderer the Renderer Pool manages (spec.md §1, §4.3, §4.4). The actual
// renderer — a native vector-tile rasterizer — is out of scope per
// spec.md §1; this package only describes the shape the pool and pipeline
// depend on, plus a deterministic fake used by tests and local
// development.
package mbglrender

import (
	"context"
	"time"
)

// Mode selects which of a style's two renderer pools (tile vs static) an
// instance belongs to (spec.md §3, §4.4).
type Mode string

const (
	ModeTile   Mode = "tile"
	ModeStatic Mode = "static"
)

// FetchResult is what a resource fetch callback returns to the renderer.
type FetchResult struct {
	Data     []byte
	Modified time.Time
	Expires  time.Time
	ETag     string
}

// FetchFunc is the renderer's "fetch any resource" callback — the
// Resource Resolver, bound to one Style Binding (spec.md §4.2). It is
// invoked from the renderer's own worker context and must be safe for
// concurrent calls across unrelated resources (spec.md §5).
type FetchFunc func(ctx context.Context, url string) (*FetchResult, error)

// RenderParams is the Render Parameterization from spec.md §3.
type RenderParams struct {
	Zoom    float64
	Lng     float64
	Lat     float64
	Bearing float64
	Pitch   float64
	Width   uint32
	Height  uint32
}

// RenderResult is the raw, premultiplied RGBA buffer the renderer
// produces, before any of the Render Pipeline's post-processing.
type RenderResult struct {
	RGBA   []byte
	Width  int
	Height int
}

// Renderer is one renderer instance, pre-bound to a pixel ratio and mode
// at construction (spec.md §3: "map.renderers[s]").
type Renderer interface {
	Render(ctx context.Context, params RenderParams) (*RenderResult, error)
	// Close tears down any native resources. Called by the pool's
	// destroy function, never directly by request code.
	Close() error
}

// Factory constructs a new Renderer bound to the given style document,
// pixel ratio, and mode, with resource fetches routed through fetch.
type Factory func(ctx context.Context, styleJSON []byte, pixelRatio int, mode Mode, fetch FetchFunc) (Renderer, error)
