// Package render implements the Render Pipeline from spec.md §4.4: the
// strictly sequential validate -> (overlay) -> acquire -> render ->
// un-premultiply -> crop -> composite -> encode operation that backs
// every tile and static-map HTTP response.
package render

import (
	"bytes"
	"context"
	"image"
	"math"
	"time"

	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/overlay"
	"github.com/ownmap/tileserver/projection"
	"github.com/ownmap/tileserver/styles"
)

// Image is a successfully rendered, encoded response.
type Image struct {
	Data         []byte
	ContentType  string
	LastModified time.Time
}

// Options configures pipeline-wide behavior not carried per-request.
type Options struct {
	MaxSize       int
	FormatQuality FormatQuality
	IconOptions   overlay.IconOptions
}

// Pipeline renders requests against Style Bindings.
type Pipeline struct {
	opts Options
}

// NewPipeline constructs a Pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.FormatQuality == (FormatQuality{}) {
		opts.FormatQuality = DefaultFormatQuality
	}
	return &Pipeline{opts: opts}
}

// RespondImage performs spec.md §4.4's respondImage operation.
func (p *Pipeline) RespondImage(ctx context.Context, binding *styles.Binding, req Request, overlayQuery *overlay.Query, mode mbglrender.Mode) (*Image, errorsx.Error) {
	validateSpan := tracing.StartSpan(ctx, "render.validate")
	if err := Validate(req, p.opts.MaxSize); err != nil {
		validateSpan.End(ctx)
		return nil, err
	}
	validateSpan.End(ctx)

	var overlayRGBA *image.RGBA
	if overlayQuery != nil && !overlayQuery.IsEmpty() {
		overlaySpan := tracing.StartSpan(ctx, "render.overlay")
		cam := overlay.Camera{
			Lng: req.Lon, Lat: req.Lat, Zoom: req.Zoom, Bearing: req.Bearing,
			Width: req.Width, Height: req.Height, Scale: req.Scale,
		}
		rgba, err := overlay.Rasterize(ctx, cam, overlayQuery, p.opts.IconOptions)
		overlaySpan.End(ctx)
		if err != nil {
			return nil, err
		}
		overlayRGBA = rgba
	}

	effectiveMode := mode
	if mode == mbglrender.ModeTile && req.TileMargin != 0 {
		effectiveMode = mbglrender.ModeStatic
	}
	pool, poolErr := binding.PoolFor(req.Scale, effectiveMode)
	if poolErr != nil {
		return nil, poolErr
	}

	acquireSpan := tracing.StartSpan(ctx, "render.acquire")
	lease, err := pool.Acquire(ctx)
	acquireSpan.End(ctx)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer lease.Release()

	params, geometry := buildRenderParams(req)

	renderSpan := tracing.StartSpan(ctx, "render.render")
	result, renderErr := lease.Instance().Render(ctx, params)
	renderSpan.End(ctx)
	if renderErr != nil {
		return nil, errorsx.Wrap(renderErr)
	}

	UnpremultiplyInPlace(result.RGBA)

	outW, outH := int(req.Width)*req.Scale, int(req.Height)*req.Scale

	var resized *image.RGBA
	if req.Zoom == 0 {
		rendered := &image.RGBA{
			Pix:    result.RGBA,
			Stride: result.Width * 4,
			Rect:   image.Rect(0, 0, result.Width, result.Height),
		}
		resized = Downscale(rendered, outW, outH)
	} else {
		resized = CropRegion(result.RGBA, result.Width, result.Height, geometry.offsetX, geometry.offsetY, outW, outH)
	}

	attributionText := binding.StaticAttributionText
	if overlayQuery != nil && overlayQuery.AttributionText != "" {
		attributionText = overlayQuery.AttributionText
	}

	composeSpan := tracing.StartSpan(ctx, "render.compose")
	composited := Compose(resized, overlayRGBA, binding.Watermark, attributionText, mode == mbglrender.ModeStatic)
	composeSpan.End(ctx)

	var buf bytes.Buffer
	encodeSpan := tracing.StartSpan(ctx, "render.encode")
	encodeErr := Encode(&buf, composited, req.Format, p.opts.FormatQuality)
	encodeSpan.End(ctx)
	if encodeErr != nil {
		return nil, encodeErr
	}

	return &Image{
		Data:         buf.Bytes(),
		ContentType:  ContentType(req.Format),
		LastModified: binding.LastModified,
	}, nil
}

type renderGeometry struct {
	offsetX, offsetY int
}

// buildRenderParams implements spec.md §4.4's render parameterization:
// the 512px-tile zoom decrement, the zoom-0 2x-render-then-downscale
// trick, and the tileMargin padding/offset math.
func buildRenderParams(req Request) (mbglrender.RenderParams, renderGeometry) {
	mglZ := req.Zoom - 1
	if mglZ < 0 {
		mglZ = 0
	}

	width := req.Width
	height := req.Height
	offsetX, offsetY := 0, 0

	switch {
	case req.Zoom == 0:
		width *= 2
		height *= 2
	case req.Zoom > 2 && req.TileMargin > 0:
		margin := req.TileMargin
		width += uint32(2 * margin)
		height += uint32(2 * margin)

		worldPx := projection.TileSize * math.Pow(2, req.Zoom)
		centerPx := projection.Px(req.Lon, req.Lat, req.Zoom)
		halfH := float64(req.Height) / 2
		top := centerPx.Y - halfH
		bottom := centerPx.Y + halfH

		yoffset := 0.0
		if bottom > worldPx {
			yoffset = bottom - worldPx
		}
		if top < 0 && -top > yoffset {
			yoffset = -top
		}

		offsetX = margin * req.Scale
		offsetY = (margin + int(yoffset)) * req.Scale
	}

	params := mbglrender.RenderParams{
		Zoom:    mglZ,
		Lng:     req.Lon,
		Lat:     req.Lat,
		Bearing: req.Bearing,
		Pitch:   req.Pitch,
		Width:   width * uint32(req.Scale),
		Height:  height * uint32(req.Scale),
	}

	return params, renderGeometry{offsetX: offsetX, offsetY: offsetY}
}
