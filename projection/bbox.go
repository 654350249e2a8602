package projection

import "math"

const bboxZoomReference = 25

// DefaultPadding is the padding fraction used when the query omits one
// (spec.md §4.6).
const DefaultPadding = 0.1

// CalcZForBBox implements spec.md §4.6's bounding-box zoom solver.
func CalcZForBBox(bbox Bounds, width, height uint32, padding float64) float64 {
	nwPx := Px(bbox.MinLon, bbox.MaxLat, bboxZoomReference)
	sePx := Px(bbox.MaxLon, bbox.MinLat, bboxZoomReference)

	pxDX := math.Abs(sePx.X - nwPx.X)
	pxDY := math.Abs(sePx.Y - nwPx.Y)

	denomW := float64(width) / (1 + 2*padding)
	denomH := float64(height) / (1 + 2*padding)

	ratio := math.Max(pxDX/denomW, pxDY/denomH)

	z := bboxZoomReference - math.Log(ratio)/math.Ln2

	minZ := math.Log(float64(maxUint32(width, height))/float64(TileSize)) / math.Ln2
	if z < minZ {
		z = minZ
	}
	if z > bboxZoomReference {
		z = bboxZoomReference
	}

	return z
}

func maxUint32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// BBoxCenter computes the bbox center via a forward-then-inverse
// Web-Mercator round trip at a fixed zoom, per spec.md §4.6, so
// antimeridian-straddling boxes behave consistently rather than via a
// naive lng/lat midpoint.
func BBoxCenter(bbox Bounds) (lng, lat float64) {
	const z = bboxZoomReference

	nw := Px(bbox.MinLon, bbox.MaxLat, z)
	se := Px(bbox.MaxLon, bbox.MinLat, z)

	mid := Pixel{X: (nw.X + se.X) / 2, Y: (nw.Y + se.Y) / 2}
	return Unpx(mid, z)
}

// UnionBounds returns the smallest bounds containing both boxes. Callers
// start from an "empty" accumulator and pass empty=true on the very first
// call.
func UnionBounds(acc, next Bounds, accEmpty bool) Bounds {
	if accEmpty {
		return next
	}
	return Bounds{
		MinLon: math.Min(acc.MinLon, next.MinLon),
		MinLat: math.Min(acc.MinLat, next.MinLat),
		MaxLon: math.Max(acc.MaxLon, next.MaxLon),
		MaxLat: math.Max(acc.MaxLat, next.MaxLat),
	}
}

// PointBounds is the degenerate bounds of a single point.
func PointBounds(lng, lat float64) Bounds {
	return Bounds{MinLon: lng, MaxLon: lng, MinLat: lat, MaxLat: lat}
}
