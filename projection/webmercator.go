// Package projection implements the Web-Mercator forward/inverse math and
// the optional style-specific data projection adapter from spec.md §4.5,
// §4.6, §9, generalized from the teacher's webservices/tile_coords.go.
package projection

import "math"

// TileSize is the renderer's internal tile grid unit (256px), used by Px
// and PrecisePx. The renderer itself works in 512px tiles internally, but
// the Glossary's "precise pixel projection" and spec.md §4.5's overlay
// math are defined in terms of this 256px convention.
const TileSize = 256

// referenceZoom is the fixed zoom precisePx projects at before scaling
// down to the target zoom, preserving sub-pixel accuracy (Glossary:
// "Precise pixel projection").
const referenceZoom = 20

// Pixel is a point in pixel space at some zoom level.
type Pixel struct {
	X, Y float64
}

// Px projects (lng,lat) into pixel space at the given zoom, using the
// renderer's 256px-tile convention.
func Px(lng, lat, zoom float64) Pixel {
	scale := math.Pow(2, zoom) * TileSize
	x := (lng + 180.0) / 360.0 * scale

	latRad := lat * math.Pi / 180.0
	sinLat := math.Sin(latRad)
	y := (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * scale

	return Pixel{X: x, Y: y}
}

// PrecisePx projects at the fixed reference zoom (20) and scales the
// result to z, per the Glossary: precisePx(ll, z) == precisePx(ll, 20) *
// 2^(z-20).
func PrecisePx(lng, lat, z float64) Pixel {
	ref := Px(lng, lat, referenceZoom)
	factor := math.Pow(2, z-referenceZoom)
	return Pixel{X: ref.X * factor, Y: ref.Y * factor}
}

// Unpx is the inverse of Px: given a pixel coordinate and zoom, returns
// (lng, lat).
func Unpx(px Pixel, zoom float64) (lng, lat float64) {
	scale := math.Pow(2, zoom) * TileSize
	lng = px.X/scale*360.0 - 180.0

	n := math.Pi - 2*math.Pi*px.Y/scale
	lat = 180.0 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
	return lng, lat
}

// Deg2Num converts (lat,lng) to the integer tile coordinate at zoomLevel.
func Deg2Num(lat, lng float64, zoomLevel int) (x, y int) {
	n := math.Exp2(float64(zoomLevel))
	x = int(math.Floor((lng + 180.0) / 360.0 * n))
	y = int(math.Floor((1.0 - math.Log(math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * n))
	return x, y
}

// Num2Deg is the inverse of Deg2Num: returns the (lat,lng) of a tile's
// northwest corner.
func Num2Deg(x, y, zoomLevel int) (lat, lng float64) {
	n := math.Pi - 2.0*math.Pi*float64(y)/math.Exp2(float64(zoomLevel))
	lat = 180.0 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
	lng = float64(x)/math.Exp2(float64(zoomLevel))*360.0 - 180.0
	return lat, lng
}

// Bounds is a WGS84 lng/lat bounding box.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// TileBounds returns the WGS84 bounds of tile (x,y,z).
func TileBounds(x, y, zoomLevel int) Bounds {
	n := math.Pow(2, float64(zoomLevel))

	minLon := float64(x)/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	maxLat := latRad * 180 / math.Pi

	maxLon := float64(x+1)/n*360 - 180
	latRad = math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y+1)/n)))
	minLat := latRad * 180 / math.Pi

	return Bounds{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
}

// ValidTileCoord reports whether (x,y) is within [0, 2^z) at zoom z,
// per spec.md §8's property ("tile endpoint never accepts (x,y) outside
// [0, 2^z)").
func ValidTileCoord(x, y, z int) bool {
	if z < 0 {
		return false
	}
	n := 1 << uint(z)
	return x >= 0 && x < n && y >= 0 && y < n
}
