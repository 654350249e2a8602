package render

import (
	"image"
	"image/color"
	imgdraw "image/draw"

	"github.com/golang/freetype"
	"github.com/ownmap/tileserver/fonts"
	xdraw "golang.org/x/image/draw"
)

// textSizePx is the fixed 10px sans-serif text size of both the
// watermark and the attribution, from spec.md §4.4.
const textSizePx = 10

// CropRegion extracts a (outW x outH) region from a raw premultiplied (by
// the time this runs, already un-premultiplied) RGBA buffer of size
// (renderedW x renderedH), at the given offset, implementing the padding
// removal from spec.md §4.4's tileMargin handling.
func CropRegion(buf []byte, renderedW, renderedH, offsetX, offsetY, outW, outH int) *image.RGBA {
	src := &image.RGBA{
		Pix:    buf,
		Stride: renderedW * 4,
		Rect:   image.Rect(0, 0, renderedW, renderedH),
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	imgdraw.Draw(dst, dst.Bounds(), src, image.Point{X: offsetX, Y: offsetY}, imgdraw.Src)

	return dst
}

// Downscale resamples a rendered buffer down to (outW x outH) using
// Catmull-Rom resampling, for the zoom-0 path: the tile is rendered at
// double size and then downscaled back down over the whole buffer, rather
// than cropped, so the single zoom-0 tile still covers the entire world
// (spec.md §4.4).
func Downscale(src *image.RGBA, outW, outH int) *image.RGBA {
	if src.Bounds().Dx() == outW && src.Bounds().Dy() == outH {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Compose layers the base render, the optional overlay buffer,
// watermark, and (static-mode only) attribution label in the order
// spec.md §4.4 names.
func Compose(base *image.RGBA, overlay *image.RGBA, watermark string, attributionText string, isStaticMode bool) *image.RGBA {
	out := image.NewRGBA(base.Bounds())
	imgdraw.Draw(out, out.Bounds(), base, image.Point{}, imgdraw.Src)

	if overlay != nil {
		imgdraw.Draw(out, out.Bounds(), overlay, image.Point{}, imgdraw.Over)
	}

	if watermark != "" {
		drawWatermark(out, watermark)
	}

	if isStaticMode && attributionText != "" {
		drawAttribution(out, attributionText)
	}

	return out
}

// drawWatermark draws white semi-transparent stroke + black
// semi-transparent fill at (5, H-5), per spec.md §4.4. draw2d/freetype
// don't give us stroked glyph outlines cheaply, so the "stroke" is
// approximated by drawing the glyphs offset by one device pixel in each
// of the four cardinal directions in white before the black fill pass.
func drawWatermark(img *image.RGBA, text string) {
	h := img.Bounds().Dy()
	x := 5
	y := h - 5

	white := color.RGBA{R: 255, G: 255, B: 255, A: 160}
	black := color.RGBA{R: 0, G: 0, B: 0, A: 160}

	for _, offset := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		drawText(img, text, x+offset[0], y+offset[1], white)
	}
	drawText(img, text, x, y, black)
}

// drawAttribution draws 10px black text on a white 80%-opacity
// rectangular background, right-aligned 6px from the right and bottom
// (spec.md §4.4).
func drawAttribution(img *image.RGBA, text string) {
	bounds := img.Bounds()

	textWidth := measureTextWidth(text)
	padding := 4

	rectWidth := textWidth + padding*2
	rectHeight := textSizePx + padding*2

	rectMaxX := bounds.Max.X - 6
	rectMaxY := bounds.Max.Y - 6
	rectMinX := rectMaxX - rectWidth
	rectMinY := rectMaxY - rectHeight

	background := color.RGBA{R: 255, G: 255, B: 255, A: 204}
	rect := image.Rect(rectMinX, rectMinY, rectMaxX, rectMaxY)
	imgdraw.Draw(img, rect, image.NewUniform(background), image.Point{}, imgdraw.Over)

	textX := rectMinX + padding
	textY := rectMaxY - padding
	drawText(img, text, textX, textY, color.Black)
}

func measureTextWidth(text string) int {
	// freetype doesn't expose advance-width measurement without a full
	// shaping pass; approximate with the fixed-width heuristic the
	// teacher's place-name labeler already uses (fonts/default_font.go's
	// caller sizes its canvas the same way).
	return len(text) * textSizePx * 6 / 10
}

func drawText(img *image.RGBA, text string, x, y int, c color.Color) {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(fonts.DefaultFont())
	ctx.SetFontSize(float64(textSizePx))
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(c))

	_, _ = ctx.DrawString(text, freetype.Pt(x, y))
}
