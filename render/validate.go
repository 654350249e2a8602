package render

import (
	"math"

	"github.com/ownmap/tileserver/apperr"

	"github.com/jamesrr39/goutil/errorsx"
)

// DefaultMaxSize is the maxSize validation bound from spec.md §4.4.
const DefaultMaxSize = 2048

// maxLat is the Web-Mercator latitude clamp (spec.md §4.4).
const maxLat = 85.06

// Format identifies an output raster encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// NormalizeFormat maps the "jpg" alias to "jpeg" and validates the
// remaining set, per spec.md §4.4.
func NormalizeFormat(raw string) (Format, errorsx.Error) {
	switch raw {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", errorsx.Wrap(apperr.ErrBadRequest, "format", raw)
	}
}

// Request is the Render Parameterization plus the extra pipeline inputs
// spec.md §4.4's respondImage operation takes.
type Request struct {
	Zoom    float64
	Lon     float64
	Lat     float64
	Bearing float64
	Pitch   float64
	Width   uint32
	Height  uint32
	Scale   int
	Format  Format

	TileMargin int // 0 for interactive tiles, >0 for static/margin requests
}

// Validate enforces spec.md §4.4's BadRequest rules.
func Validate(req Request, maxSize int) errorsx.Error {
	if math.IsNaN(req.Lon) || math.IsNaN(req.Lat) {
		return errorsx.Wrap(apperr.ErrBadRequest, "reason", "lon/lat is NaN")
	}
	if math.Abs(req.Lon) > 180 {
		return errorsx.Wrap(apperr.ErrBadRequest, "reason", "lon out of range", "lon", req.Lon)
	}
	if math.Abs(req.Lat) > maxLat {
		return errorsx.Wrap(apperr.ErrBadRequest, "reason", "lat out of range", "lat", req.Lat)
	}

	if req.Width == 0 || req.Height == 0 {
		return errorsx.Wrap(apperr.ErrBadRequest, "reason", "width/height must be > 0")
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	maxDim := req.Width
	if req.Height > maxDim {
		maxDim = req.Height
	}
	if int(maxDim)*req.Scale > maxSize {
		return errorsx.Wrap(apperr.ErrBadRequest, "reason", "requested size exceeds maxSize", "maxSize", maxSize)
	}

	if req.Format == "" {
		return errorsx.Wrap(apperr.ErrBadRequest, "reason", "missing format")
	}

	return nil
}
