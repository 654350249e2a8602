// Package resolver implements the Resource Resolver from spec.md §4.2:
// the single fetch(url) callback handed to every renderer instance,
// dispatching by URL scheme to sprites, fonts, the two archive kinds, and
// plain HTTP(S), with empty-response synthesis for missing tiles.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/ownmap/tileserver/archive"
	"github.com/ownmap/tileserver/fontassembler"
	"github.com/ownmap/tileserver/mbglrender"
)

// DataDecorator is the optional per-tile post-processing hook from
// spec.md §4.2 ("dataDecorator(sourceId,\"data\",bytes,z,x,y)").
type DataDecorator func(sourceID, kind string, data []byte, z, x, y int) ([]byte, error)

// Resolver is the process-wide Resource Resolver. One Resolver serves
// every Style Binding; per-binding source lookups are supplied via Bind.
type Resolver struct {
	SpritesDir    string
	FontAssembler fontassembler.Assembler
	AllowedFonts  []string
	DataDecorator DataDecorator
	Logger        *logpkg.Logger

	http  *httpFetcher
	empty *EmptyResponseCache
}

// New constructs a Resolver with its own HTTP fetcher and empty-response
// cache.
func New(spritesDir string, fontAssembler fontassembler.Assembler, logger *logpkg.Logger) *Resolver {
	return &Resolver{
		SpritesDir:    spritesDir,
		FontAssembler: fontAssembler,
		Logger:        logger,
		http:          newHTTPFetcher(),
		empty:         NewEmptyResponseCache(),
	}
}

// Bind returns a mbglrender.FetchFunc closed over a specific Style
// Binding's resolved archive sources, matching the
// styles.RegisterParams.BuildFetch shape without this package needing to
// import styles (styles already imports this package's sibling, archive).
func (r *Resolver) Bind(sources map[string]archive.Source) mbglrender.FetchFunc {
	return func(ctx context.Context, rawURL string) (*mbglrender.FetchResult, error) {
		return r.fetch(ctx, sources, rawURL)
	}
}

func (r *Resolver) fetch(ctx context.Context, sources map[string]archive.Source, rawURL string) (*mbglrender.FetchResult, error) {
	// fontstack names may contain spaces, which url.Parse rejects in a
	// host, so everything after "fonts://" is taken as the font path.
	if strings.HasPrefix(rawURL, "fonts://") {
		return r.fetchFont(ctx, &url.URL{Scheme: "fonts", Path: "/" + strings.TrimPrefix(rawURL, "fonts://")})
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", rawURL)
	}

	// url.Parse lowercases the scheme, so archiveA:// and archiveB://
	// arrive here as "archivea" and "archiveb".
	switch u.Scheme {
	case "sprites":
		return r.fetchSprite(u)
	case "fonts":
		return r.fetchFont(ctx, u)
	case "archivea", "archiveb":
		return r.fetchArchive(ctx, sources, u)
	case "http", "https":
		return r.fetchHTTP(ctx, u, rawURL)
	default:
		return nil, errorsx.Errorf("unsupported resource scheme %q", u.Scheme)
	}
}

// fetchHTTP performs the http/https dispatch branch of spec.md §4.2. A
// transport failure or non-2xx status is a missing upstream tile, not a
// fatal render error, so it is synthesized into an empty response keyed
// by the URL's extension the same way fetchArchive does for a failed
// archive read.
func (r *Resolver) fetchHTTP(ctx context.Context, u *url.URL, rawURL string) (*mbglrender.FetchResult, error) {
	result, err := r.http.fetch(ctx, rawURL)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("http fetch failed: %s", err)
		}
		return r.empty.Synthesize(strings.TrimPrefix(filepath.Ext(u.Path), "."), nil)
	}
	return result, nil
}

func (r *Resolver) fetchSprite(u *url.URL) (*mbglrender.FetchResult, error) {
	unescaped, err := url.PathUnescape(u.Host + u.Path)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	full := filepath.Join(r.SpritesDir, filepath.Clean("/"+unescaped))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", full)
	}
	return &mbglrender.FetchResult{Data: data}, nil
}

func (r *Resolver) fetchFont(ctx context.Context, u *url.URL) (*mbglrender.FetchResult, error) {
	// path shape: /<fontstack>/<range>.pbf
	trimmed := strings.TrimPrefix(u.Path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, errorsx.Errorf("malformed font resource path %q", u.Path)
	}
	fontstack := parts[0]
	codepointRange := strings.TrimSuffix(parts[1], ".pbf")

	data, err := r.FontAssembler.Assemble(ctx, fontstack, codepointRange, r.AllowedFonts)
	if err != nil {
		return nil, errorsx.Wrap(err, "fontstack", fontstack, "range", codepointRange)
	}
	return &mbglrender.FetchResult{Data: data}, nil
}

func (r *Resolver) fetchArchive(ctx context.Context, sources map[string]archive.Source, u *url.URL) (*mbglrender.FetchResult, error) {
	sourceID := u.Host
	source, ok := sources[sourceID]
	if !ok {
		return nil, errorsx.Errorf("unknown archive source %q", sourceID)
	}

	z, x, y, format, err := parseTileCoordPath(u.Path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", u.Path)
	}

	tile, tileErr := source.GetTile(ctx, z, x, y)
	if tileErr != nil {
		if r.Logger != nil {
			r.Logger.Error("archive tile read failed: %s", tileErr)
		}
		return r.empty.Synthesize(format, nil)
	}
	if tile == nil || len(tile.Data) == 0 {
		return r.empty.Synthesize(format, nil)
	}

	data := tile.Data
	if source.Kind == archive.KindArchiveB && format == "pbf" {
		data, err = gunzip(data)
		if err != nil {
			if r.Logger != nil {
				r.Logger.Error("archive-B gunzip failed: %s", err)
			}
			return r.empty.Synthesize(format, nil)
		}
	}

	if format == "pbf" && r.DataDecorator != nil {
		decorated, decorateErr := r.DataDecorator(sourceID, "data", data, z, x, y)
		if decorateErr != nil {
			return nil, errorsx.Wrap(decorateErr)
		}
		data = decorated
	}

	result := &mbglrender.FetchResult{Data: data}
	if tile.LastModified != "" {
		if t, parseErr := parseHTTPDate(tile.LastModified); parseErr == nil {
			result.Modified = t
		}
	}
	return result, nil
}

// parseTileCoordPath parses "/{z}/{x}/{y}.{format}" into its parts.
func parseTileCoordPath(path string) (z, x, y int, format string, err error) {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return 0, 0, 0, "", fmt.Errorf("expected /{z}/{x}/{y}.ext, got %q", path)
	}

	z, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, "", err
	}
	x, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, "", err
	}

	yAndExt := parts[2]
	dot := strings.LastIndexByte(yAndExt, '.')
	if dot < 0 {
		return 0, 0, 0, "", fmt.Errorf("tile path %q missing format extension", path)
	}
	y, err = strconv.Atoi(yAndExt[:dot])
	if err != nil {
		return 0, 0, 0, "", err
	}
	format = yAndExt[dot+1:]

	return z, x, y, format, nil
}
