package render

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/jamesrr39/goutil/errorsx"
)

// FormatQuality holds the per-format quality knobs from spec.md §4.4
// (`formatQuality.jpeg`, `formatQuality.webp`).
type FormatQuality struct {
	JPEG int
	WebP int
}

// DefaultFormatQuality is spec.md §4.4's defaults: jpeg 80, webp 90.
var DefaultFormatQuality = FormatQuality{JPEG: 80, WebP: 90}

// Encode writes img to w in the given format (spec.md §4.4). png is
// written at png.BestSpeed; image/png still chooses a filter per row, so
// adaptive filtering is not disabled. jpeg uses quality.JPEG
// (DefaultFormatQuality.JPEG when zero). webp is encoded losslessly by
// nativewebp, which takes no quality setting, so quality.WebP is not
// used.
func Encode(w io.Writer, img image.Image, format Format, quality FormatQuality) errorsx.Error {
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(w, img); err != nil {
			return errorsx.Wrap(err)
		}
	case FormatJPEG:
		q := quality.JPEG
		if q == 0 {
			q = DefaultFormatQuality.JPEG
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: q}); err != nil {
			return errorsx.Wrap(err)
		}
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return errorsx.Wrap(err)
		}
	default:
		return errorsx.Errorf("unsupported encode format %q", format)
	}
	return nil
}

// ContentType returns the HTTP Content-Type for format.
func ContentType(format Format) string {
	return "image/" + string(format)
}
