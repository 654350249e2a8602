package resolver

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/mbglrender"
)

// maxFetchBytes bounds a single resource fetch so a misbehaving upstream
// cannot exhaust memory; resources this server fetches (sprites, glyph
// ranges, raster tile fallbacks) are never this large in practice.
const maxFetchBytes = 64 << 20

// httpFetcher performs the http/https dispatch branch of spec.md §4.2:
// a shared client (transparent gzip via the default transport), passing
// through Last-Modified/Expires/ETag on success.
type httpFetcher struct {
	client *http.Client
}

func newHTTPFetcher() *httpFetcher {
	return &httpFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *httpFetcher) fetch(ctx context.Context, rawURL string) (*mbglrender.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", rawURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorsx.Errorf("fetch %q: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, errorsx.Wrap(err, "url", rawURL)
	}

	result := &mbglrender.FetchResult{Data: data, ETag: resp.Header.Get("ETag")}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, parseErr := parseHTTPDate(lm); parseErr == nil {
			result.Modified = t
		}
	}
	if exp := resp.Header.Get("Expires"); exp != "" {
		if t, parseErr := parseHTTPDate(exp); parseErr == nil {
			result.Expires = t
		}
	}

	return result, nil
}

func parseHTTPDate(s string) (time.Time, error) {
	return http.ParseTime(s)
}
