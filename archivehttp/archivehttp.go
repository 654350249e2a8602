// Package archivehttp is a concrete ArchiveAReader that proxies tile
// reads to a remote XYZ tile HTTP endpoint, exercising the "archive-A
// inputfile may itself be an HTTP(S) URL" allowance (spec.md §4.1 step
// 2). Kept separate from the resolver package's own http scheme
// dispatch: that one forwards a renderer's http(s):// resource fetches
// verbatim, this one implements the archive.ArchiveAReader contract so
// an archive-A source declared against a remote tile server behaves
// identically to one declared against a local file.
package archivehttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
	"github.com/ownmap/tileserver/archive"
)

// Reader fetches tiles from a remote server whose tile URLs follow the
// "{base}/{z}/{x}/{y}.{format}" template.
type Reader struct {
	base   string
	format string
	client *http.Client
}

// Open returns a Reader templated against baseURL, a
// "archiveA://{name}" source's resolved inputfile when that inputfile
// is itself an http(s) URL.
func Open(baseURL string) (*Reader, errorsx.Error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, errorsx.Errorf("archivehttp: inputfile %q is not an http(s) URL", baseURL)
	}
	return &Reader{
		base:   strings.TrimSuffix(baseURL, "/"),
		format: "png",
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (r *Reader) GetTile(ctx context.Context, z, x, y int) (*archive.Tile, errorsx.Error) {
	tileURL := fmt.Sprintf("%s/%d/%d/%d.%s", r.base, z, x, y, r.format)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", tileURL)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(apperr.ErrUpstreamError, "url", tileURL, "cause", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errorsx.Wrap(apperr.ErrUpstreamEmpty, "url", tileURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorsx.Wrap(apperr.ErrUpstreamError, "url", tileURL, "status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsx.Wrap(apperr.ErrUpstreamError, "url", tileURL, "cause", err)
	}

	return &archive.Tile{Data: data, LastModified: resp.Header.Get("Last-Modified")}, nil
}

func (r *Reader) GetInfo(ctx context.Context) (*archive.Info, errorsx.Error) {
	return &archive.Info{MinZoom: 0, MaxZoom: 22, Format: r.format}, nil
}

func (r *Reader) Close() error { return nil }
