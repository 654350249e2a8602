package resolver

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/dgraph-io/ristretto"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/mbglrender"
)

// EmptyResponseCache synthesizes and caches the empty-response bytes for
// a missing tile, keyed by (format, color), per spec.md §4.2. pbf/unknown
// formats are a zero-byte buffer and never touch the cache; raster
// formats are a 1x1 image of the declared fill color, cached so repeated
// misses for the same (format,color) pair never re-encode.
//
// Backed by dgraph-io/ristretto rather than a plain map: its admission
// policy and per-key cost accounting give the "never grows beyond
// |formats|*|colors|" property a belt-and-suspenders bound even though
// the natural key space is already small.
type EmptyResponseCache struct {
	cache *ristretto.Cache
}

// NewEmptyResponseCache constructs a cache sized generously above any
// realistic (format,color) key space.
func NewEmptyResponseCache() *EmptyResponseCache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		// ristretto.NewCache only fails on invalid config constants
		// above, which are fixed at compile time.
		panic(err)
	}
	return &EmptyResponseCache{cache: cache}
}

// transparentWhite is the default fill color when a source declares
// none (spec.md §4.2).
var transparentWhite = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// Synthesize returns the empty response for format, using fill if
// non-nil or transparentWhite otherwise.
func (c *EmptyResponseCache) Synthesize(format string, fill *color.RGBA) (*mbglrender.FetchResult, error) {
	switch format {
	case "png", "jpg", "jpeg", "webp":
		// known raster format, fall through to the 1x1 encode below.
	default:
		// pbf or any format this cache doesn't know how to encode: a
		// zero-byte buffer per spec.md §4.2.
		return &mbglrender.FetchResult{Data: nil}, nil
	}

	fillColor := transparentWhite
	if fill != nil {
		fillColor = *fill
	}

	key := cacheKey(format, fillColor)
	if cached, ok := c.cache.Get(key); ok {
		data := cached.([]byte)
		return &mbglrender.FetchResult{Data: data}, nil
	}

	data, err := encode1x1(format, fillColor)
	if err != nil {
		return nil, errorsx.Wrap(err, "format", format)
	}

	c.cache.Set(key, data, int64(len(data)))

	return &mbglrender.FetchResult{Data: data}, nil
}

func cacheKey(format string, c color.RGBA) string {
	return fmt.Sprintf("%s:%d,%d,%d,%d", format, c.R, c.G, c.B, c.A)
}

func encode1x1(format string, c color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, c)

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
			return nil, err
		}
	case "webp":
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown raster format %q", format)
	}

	return buf.Bytes(), nil
}
