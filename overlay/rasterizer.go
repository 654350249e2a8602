package overlay

import (
	"context"
	"image"
	"image/color"
	imgdraw "image/draw"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/ownmap/tileserver/projection"
	xdraw "golang.org/x/image/draw"
)

// Camera describes the transform the base render and the overlay must
// agree on, per spec.md §4.5's geometry setup.
type Camera struct {
	Lng, Lat float64
	Zoom     float64
	Bearing  float64
	Width    uint32
	Height   uint32
	Scale    int
}

// centerPx computes the camera's center pixel, clamped so the window
// never samples past the poles, mirroring the Render Pipeline's own
// vertical overshoot clamp (spec.md §4.4, §4.5).
func (c Camera) centerPx() projection.Pixel {
	center := projection.Px(c.Lng, c.Lat, c.Zoom)

	worldHeight := projection.TileSize * math.Pow(2, c.Zoom)
	halfH := float64(c.Height) / 2

	top := center.Y - halfH
	bottom := center.Y + halfH

	if bottom > worldHeight {
		center.Y -= bottom - worldHeight
	}
	if top < 0 {
		center.Y -= top
	}

	return center
}

// Rasterize draws the query's paths and markers onto a fresh RGBA
// buffer sized (scale*W x scale*H), returning nil if there is nothing to
// draw (spec.md §4.5).
func Rasterize(ctx context.Context, cam Camera, q *Query, iconOpts IconOptions) (*image.RGBA, errorsx.Error) {
	if q.IsEmpty() {
		return nil, nil
	}

	icons, err := ResolveMarkerIcons(ctx, q.Markers, iconOpts)
	if err != nil {
		return nil, err
	}

	w := int(cam.Width) * cam.Scale
	h := int(cam.Height) * cam.Scale
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	gc := draw2dimg.NewGraphicContext(img)
	defer gc.Close()

	setupCameraTransform(gc, cam)

	for _, p := range q.Paths {
		drawPath(gc, p, q, cam.Zoom)
	}

	deviceTransform := buildDeviceTransform(cam)
	for _, m := range q.Markers {
		icon := icons[m]
		if icon == nil {
			continue
		}
		drawMarker(img, m, icon, cam, deviceTransform)
	}

	return img, nil
}

// deviceTransform maps an unscaled map-pixel coordinate (as produced by
// projection.PrecisePx) to the final device pixel in the output buffer,
// matching the gc.Scale/Rotate/Translate stack setupCameraTransform
// installs for path drawing (spec.md §4.5).
type deviceTransform func(x, y float64) (float64, float64)

func buildDeviceTransform(cam Camera) deviceTransform {
	center := cam.centerPx()
	s := float64(cam.Scale)

	if cam.Bearing == 0 {
		return func(x, y float64) (float64, float64) {
			return (x - center.X + float64(cam.Width)/2) * s, (y - center.Y + float64(cam.Height)/2) * s
		}
	}

	theta := -cam.Bearing * math.Pi / 180
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	return func(x, y float64) (float64, float64) {
		dx := x - center.X
		dy := y - center.Y
		rx := dx*cosT - dy*sinT
		ry := dx*sinT + dy*cosT
		return (rx + float64(cam.Width)/2) * s, (ry + float64(cam.Height)/2) * s
	}
}

func setupCameraTransform(gc *draw2dimg.GraphicContext, cam Camera) {
	center := cam.centerPx()

	gc.Scale(float64(cam.Scale), float64(cam.Scale))

	if cam.Bearing != 0 {
		gc.Translate(float64(cam.Width)/2, float64(cam.Height)/2)
		gc.Rotate(-cam.Bearing * math.Pi / 180)
		gc.Translate(-center.X, -center.Y)
	} else {
		gc.Translate(-center.X+float64(cam.Width)/2, -center.Y+float64(cam.Height)/2)
	}
}

func drawPath(gc *draw2dimg.GraphicContext, p *Path, q *Query, zoom float64) {
	if len(p.Points) == 0 {
		return
	}

	fillStr := p.Style.Fill
	if fillStr == "" {
		fillStr = q.Fill
	}
	strokeStr := p.Style.Stroke
	if strokeStr == "" {
		strokeStr = q.Stroke
	}
	lineWidth := p.Style.Width
	if lineWidth == 0 {
		lineWidth = q.Width
	}
	if lineWidth == 0 {
		lineWidth = 2
	}

	var fillColor, strokeColor color.RGBA
	hasFill := fillStr != ""
	if hasFill {
		fillColor = ColorOrDefault(fillStr, color.RGBA{})
	}
	hasStroke := strokeStr != ""
	if hasStroke {
		strokeColor = ColorOrDefault(strokeStr, DefaultStrokeColor)
	}
	if !hasFill && !hasStroke {
		hasStroke = true
		strokeColor = DefaultStrokeColor
	}

	closed := len(p.Points) > 1 && p.Points[0] == p.Points[len(p.Points)-1]

	setLineCapJoin(gc, q.LineCap, q.LineJoin)

	borderWidth := q.BorderWidth
	if borderWidth == 0 && q.Border != "" {
		borderWidth = 0.1 * lineWidth
	}

	if q.Border != "" && borderWidth > 0 {
		borderColor := ColorOrDefault(q.Border, color.RGBA{R: 0, G: 0, B: 0, A: 255})
		strokePath(gc, p.Points, zoom, closed, lineWidth+2*borderWidth, borderColor, false, color.RGBA{})
	}

	strokePath(gc, p.Points, zoom, closed, lineWidth, strokeColor, hasFill, fillColor)
}

func strokePath(gc *draw2dimg.GraphicContext, points []LngLat, zoom float64, closed bool, lineWidth float64, strokeColor color.RGBA, hasFill bool, fillColor color.RGBA) {
	gc.SetLineWidth(lineWidth)
	gc.SetStrokeColor(strokeColor)
	if hasFill {
		gc.SetFillColor(fillColor)
	}

	gc.BeginPath()
	for i, pt := range points {
		px := projection.PrecisePx(pt.Lng, pt.Lat, zoom)
		if i == 0 {
			gc.MoveTo(px.X, px.Y)
		} else {
			gc.LineTo(px.X, px.Y)
		}
	}
	if closed {
		gc.Close()
	}

	if hasFill {
		gc.FillStroke()
		return
	}
	gc.Stroke()
}

func setLineCapJoin(gc *draw2dimg.GraphicContext, capStr, joinStr string) {
	lineCap := draw2d.ButtCap
	switch capStr {
	case "round":
		lineCap = draw2d.RoundCap
	case "square":
		lineCap = draw2d.SquareCap
	}
	gc.SetLineCap(lineCap)

	lineJoin := draw2d.MiterJoin
	switch joinStr {
	case "round":
		lineJoin = draw2d.RoundJoin
	case "bevel":
		lineJoin = draw2d.BevelJoin
	}
	gc.SetLineJoin(lineJoin)
}

// drawMarker composites icon onto dst, anchored center-bottom at the
// marker's projected location (spec.md §4.5: "anchored center-bottom").
// The icon itself is drawn upright regardless of bearing, matching how
// map-pin glyphs conventionally behave under a rotated viewport.
func drawMarker(dst *image.RGBA, m *Marker, icon image.Image, cam Camera, transform deviceTransform) {
	unscaled := projection.PrecisePx(m.Location.Lng, m.Location.Lat, cam.Zoom)
	anchorX, anchorY := transform(unscaled.X, unscaled.Y)

	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	// icons are composited directly into device space here (rather than
	// through a pre-scaled canvas), so the scale factor is applied
	// forward rather than divided out (spec.md §4.5). The built-in
	// default pin is generated at a fixed device size, so pixel ratio
	// must not inflate it the way it does an externally supplied icon.
	effectiveScale := scale * float64(cam.Scale)
	if m.Icon == "" || m.Icon == "default" {
		effectiveScale = scale
	}

	srcBounds := icon.Bounds()
	w := int(float64(srcBounds.Dx()) * effectiveScale)
	h := int(float64(srcBounds.Dy()) * effectiveScale)
	if w <= 0 || h <= 0 {
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), icon, srcBounds, xdraw.Over, nil)

	x := anchorX - float64(w)/2 + m.OffsetX*float64(cam.Scale)
	y := anchorY - float64(h) + m.OffsetY*float64(cam.Scale)

	destRect := image.Rect(int(x), int(y), int(x)+w, int(y)+h)
	imgdraw.Draw(dst, destRect, scaled, image.Point{}, imgdraw.Over)
}
