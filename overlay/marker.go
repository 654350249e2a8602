package overlay

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/semaphore"
)

// defaultMarkerFillColor is used when a marker requests the built-in icon
// without an explicit color (spec.md §4.5).
var defaultMarkerFillColor = DefaultStrokeColor

// IconOptions governs which marker icon sources are permitted, per
// spec.md §4.5's acceptance rules.
type IconOptions struct {
	AllowInlineMarkerImages bool
	AllowRemoteMarkerIcons  bool
	IconsDir                string
	AvailableIcons          map[string]bool

	// MaxConcurrentFetches bounds how many marker icon loads run at
	// once, so a marker-heavy request cannot fan out unbounded
	// concurrent fetches (Design Note 9).
	MaxConcurrentFetches uint
}

// ResolveMarkerIcons loads every marker's icon concurrently (one
// goroutine per marker, admission-gated by a semaphore) and joins before
// returning, so the canvas pass can assume every icon is already decoded
// (Design Note 9: "async marker loading -> explicit join"). A marker
// whose icon fails to load has no entry in the returned map, and the
// canvas pass skips it.
func ResolveMarkerIcons(ctx context.Context, markers []*Marker, opts IconOptions) (map[*Marker]image.Image, errorsx.Error) {
	if len(markers) == 0 {
		return nil, nil
	}

	maxConcurrent := opts.MaxConcurrentFetches
	if maxConcurrent == 0 {
		maxConcurrent = 8
	}
	sema := semaphore.NewSemaphore(maxConcurrent)

	var mu sync.Mutex
	results := make(map[*Marker]image.Image, len(markers))

	for _, m := range markers {
		sema.Add()
		go func(m *Marker) {
			defer sema.Done()

			img, err := resolveMarkerIcon(ctx, m, opts)
			if err != nil {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			results[m] = img
		}(m)
	}

	sema.Wait()

	return results, nil
}

func resolveMarkerIcon(ctx context.Context, m *Marker, opts IconOptions) (image.Image, errorsx.Error) {
	switch {
	case m.Icon == "" || m.Icon == "default":
		fill := ColorOrDefault(m.Color, defaultMarkerFillColor)
		// spec.md §4.5: the built-in pin is rasterized to PNG and
		// converted to a data URL, then decoded the same way an
		// explicitly supplied inline icon would be.
		dataURL, err := DefaultMarkerIconDataURL(fill)
		if err != nil {
			return nil, err
		}
		return decodeDataURLImage(dataURL)

	case strings.HasPrefix(m.Icon, "data:"):
		if !opts.AllowInlineMarkerImages {
			return nil, errorsx.Errorf("inline marker images are not allowed")
		}
		return decodeDataURLImage(m.Icon)

	case strings.HasPrefix(m.Icon, "http://") || strings.HasPrefix(m.Icon, "https://"):
		if !opts.AllowRemoteMarkerIcons {
			return nil, errorsx.Errorf("remote marker icons are not allowed")
		}
		return fetchHTTPImage(ctx, m.Icon)

	default:
		return loadLocalIcon(m.Icon, opts)
	}
}

func decodeDataURLImage(dataURL string) (image.Image, errorsx.Error) {
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return nil, errorsx.Errorf("malformed data URL")
	}
	header := dataURL[:comma]
	if !strings.Contains(header, "base64") {
		return nil, errorsx.Errorf("data URL must be base64-encoded")
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	img, _, decodeErr := image.Decode(bytes.NewReader(raw))
	if decodeErr != nil {
		return nil, errorsx.Wrap(decodeErr)
	}
	return img, nil
}

func fetchHTTPImage(ctx context.Context, url string) (image.Image, errorsx.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorsx.Errorf("fetch marker icon %q: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	img, _, decodeErr := image.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		return nil, errorsx.Wrap(decodeErr)
	}
	return img, nil
}

func loadLocalIcon(relPath string, opts IconOptions) (image.Image, errorsx.Error) {
	if !opts.AvailableIcons[relPath] {
		return nil, errorsx.Errorf("marker icon %q is not in the available icons list", relPath)
	}

	full := filepath.Join(opts.IconsDir, filepath.Clean("/"+relPath))
	f, err := os.Open(full)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", full)
	}
	defer f.Close()

	img, _, decodeErr := image.Decode(f)
	if decodeErr != nil {
		return nil, errorsx.Wrap(decodeErr, "path", full)
	}
	return img, nil
}
