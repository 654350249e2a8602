package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func countOpaquePixels(img *image.RGBA) int {
	count := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				count++
			}
		}
	}
	return count
}

func identityTransform(x, y float64) (float64, float64) { return x, y }

func solidIcon(size int) *image.RGBA {
	icon := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			icon.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return icon
}

// the default marker icon must render at a fixed device size regardless
// of pixel ratio, while an externally supplied icon scales with it.
func TestDrawMarkerDefaultIconIgnoresCameraScale(t *testing.T) {
	icon := solidIcon(10)
	cam := Camera{Width: 100, Height: 100, Scale: 2}

	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	m := &Marker{Icon: "default", Scale: 1}
	drawMarker(dst, m, icon, cam, identityTransform)

	assert.Equal(t, 10*10, countOpaquePixels(dst))
}

func TestDrawMarkerExternalIconScalesWithCameraScale(t *testing.T) {
	icon := solidIcon(10)
	cam := Camera{Width: 100, Height: 100, Scale: 2}

	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	m := &Marker{Icon: "custom.png", Scale: 1}
	drawMarker(dst, m, icon, cam, identityTransform)

	assert.Equal(t, 20*20, countOpaquePixels(dst))
}
