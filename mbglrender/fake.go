package mbglrender

import (
	"context"
	"image/color"
)

// FakeRenderer is a deterministic in-memory stand-in for the native
// renderer: it paints a flat-colored RGBA buffer of the requested size and
// optionally exercises the fetch callback against a fixed set of URLs, so
// pool and pipeline behavior (acquire/release discipline, un-premultiply,
// crop, composite) is testable without the real renderer. Used by
// pipeline tests and the CLI's "serve --fake-renderer" developer mode.
type FakeRenderer struct {
	PixelRatio int
	Mode       Mode
	Fetch      FetchFunc
	FillColor  color.RGBA
	Closed     bool

	// FetchURLs, if non-empty, are fetched (and discarded) on every
	// Render call, to exercise the resource resolver from a renderer
	// "worker" context the way the real renderer would.
	FetchURLs []string
}

// NewFakeRendererFactory returns a Factory that always produces
// *FakeRenderer instances filled with fillColor.
func NewFakeRendererFactory(fillColor color.RGBA, fetchURLs ...string) Factory {
	return func(ctx context.Context, styleJSON []byte, pixelRatio int, mode Mode, fetch FetchFunc) (Renderer, error) {
		return &FakeRenderer{
			PixelRatio: pixelRatio,
			Mode:       mode,
			Fetch:      fetch,
			FillColor:  fillColor,
			FetchURLs:  fetchURLs,
		}, nil
	}
}

func (r *FakeRenderer) Render(ctx context.Context, params RenderParams) (*RenderResult, error) {
	for _, url := range r.FetchURLs {
		if r.Fetch == nil {
			continue
		}
		_, _ = r.Fetch(ctx, url)
	}

	w := int(params.Width)
	h := int(params.Height)
	buf := make([]byte, w*h*4)

	// premultiplied RGB, matching what the real renderer hands back.
	a := r.FillColor.A
	pr := byte(uint16(r.FillColor.R) * uint16(a) / 255)
	pg := byte(uint16(r.FillColor.G) * uint16(a) / 255)
	pb := byte(uint16(r.FillColor.B) * uint16(a) / 255)

	for i := 0; i < w*h; i++ {
		buf[i*4+0] = pr
		buf[i*4+1] = pg
		buf[i*4+2] = pb
		buf[i*4+3] = a
	}

	return &RenderResult{RGBA: buf, Width: w, Height: h}, nil
}

func (r *FakeRenderer) Close() error {
	r.Closed = true
	return nil
}
