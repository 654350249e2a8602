package overlay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultMarkerWidth/Height are the canonical 30x45 pin dimensions
// spec.md §4.5 names ("the canonical 30×45 SVG defined by the
// generator").
const (
	defaultMarkerWidth  = 30
	defaultMarkerHeight = 45
)

// defaultMarkerSVGTemplate is the canonical pin shape, parameterized by fill
// color at generation time.
const defaultMarkerSVGTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="30" height="45" viewBox="0 0 30 45">
  <path d="M15 0C6.7 0 0 6.7 0 15c0 10.5 15 30 15 30s15-19.5 15-30C30 6.7 23.3 0 15 0z" fill="%s"/>
  <circle cx="15" cy="15" r="6" fill="#ffffff"/>
</svg>`

// DefaultMarkerIcon generates the canonical pin marker rasterized to an
// RGBA image, parameterized by fill color (spec.md §4.5).
func DefaultMarkerIcon(fill color.RGBA) (image.Image, errorsx.Error) {
	hex := fmt.Sprintf("#%02x%02x%02x", fill.R, fill.G, fill.B)
	svg := fmt.Sprintf(defaultMarkerSVGTemplate, hex)

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	w, h := defaultMarkerWidth, defaultMarkerHeight
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)

	icon.Draw(dasher, 1)

	return img, nil
}

// DefaultMarkerIconDataURL renders DefaultMarkerIcon to a PNG-encoded
// data: URL, per spec.md §4.5 ("converted to a data URL").
func DefaultMarkerIconDataURL(fill color.RGBA) (string, errorsx.Error) {
	img, err := DefaultMarkerIcon(fill)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if encodeErr := png.Encode(&buf, img); encodeErr != nil {
		return "", errorsx.Wrap(encodeErr)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
