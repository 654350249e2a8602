package styles

import (
	"context"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
	"github.com/ownmap/tileserver/archive"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/projection"
	"github.com/ownmap/tileserver/rendererpool"
	"github.com/ownmap/tileserver/styles/glstyle"
)

// defaultMinByScale and defaultMaxByScale are the Renderer Pool's default
// bounds, indexed by scaleFactor-1 and clamped to the last element for
// scale factors beyond the table (spec.md §4.3).
var defaultMinByScale = []int{8, 4, 2}
var defaultMaxByScale = []int{16, 8, 4}

func defaultBoundsForScale(scaleFactor int) (min, max int) {
	idx := scaleFactor - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(defaultMinByScale) {
		idx = len(defaultMinByScale) - 1
	}
	min = defaultMinByScale[idx]
	max = defaultMaxByScale[idx]
	if max < min {
		max = min
	}
	return min, max
}

// Binding is the Style Binding from spec.md §3: a per-id record composed
// at registration, holding the renderer pools, resolved archive sources,
// and the published tileJSON. Once created, its pools are the exclusive
// owners of their renderer instances (spec.md §3 invariant); the registry
// never mutates a Binding after publishing it, except the LastModified
// read on every request.
type Binding struct {
	ID                    string
	Document              *glstyle.Document
	TileJSON              *TileJSON
	PublicURL             string
	Sources               map[string]archive.Source
	DataProjection        *projection.DataProjection
	LastModified          time.Time
	Watermark             string
	StaticAttributionText string
	MaxScaleFactor        int

	// renderersByScale[s-1] and staticRenderersByScale[s-1] are the pools
	// for pixel ratio s under mbglrender.ModeTile and
	// mbglrender.ModeStatic respectively.
	renderersByScale       []*rendererpool.Pool[mbglrender.Renderer]
	staticRenderersByScale []*rendererpool.Pool[mbglrender.Renderer]
}

// PoolFor returns the renderer pool for the given pixel ratio and mode.
func (b *Binding) PoolFor(scaleFactor int, mode mbglrender.Mode) (*rendererpool.Pool[mbglrender.Renderer], errorsx.Error) {
	if scaleFactor < 1 || scaleFactor > b.MaxScaleFactor {
		return nil, errorsx.Errorf("scale factor %d out of range [1,%d] for style %q", scaleFactor, b.MaxScaleFactor, b.ID)
	}

	var pools []*rendererpool.Pool[mbglrender.Renderer]
	switch mode {
	case mbglrender.ModeTile:
		pools = b.renderersByScale
	case mbglrender.ModeStatic:
		pools = b.staticRenderersByScale
	default:
		return nil, errorsx.Errorf("unknown renderer mode %q", mode)
	}

	return pools[scaleFactor-1], nil
}

// Close tears down every renderer pool owned by this binding (spec.md §3:
// "removing a binding closes all pools and no request may use them
// afterwards").
func (b *Binding) Close(ctx context.Context) error {
	var firstErr error
	for _, pool := range b.renderersByScale {
		if err := pool.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, pool := range b.staticRenderersByScale {
		if err := pool.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, source := range b.Sources {
		_ = source.Close()
	}
	return firstErr
}

// RegisterParams bundles everything the Style Loader needs to build a
// Binding from a parsed style document (spec.md §4.1).
type RegisterParams struct {
	ID              string
	Document        *glstyle.Document
	PublicURL       string
	Watermark       string
	AttributionText string
	MaxScaleFactor  int
	StyleJSONFolder string

	DataResolver  DataResolver
	ArchiveOpener ArchiveOpener

	// BuildFetch constructs the renderer's resource-fetch callback from
	// the resolved source map; supplied by the Resource Resolver so this
	// package never needs to import it (it would import this package,
	// for binding.Sources lookups on tile requests).
	BuildFetch func(sources map[string]archive.Source) mbglrender.FetchFunc

	TileRendererFactory   mbglrender.Factory
	StaticRendererFactory mbglrender.Factory
}

// Register runs the Style Loader (spec.md §4.1) and returns a fully
// constructed Binding, or an error wrapping apperr.ErrFatalConfig if any
// source fails to resolve, any proj4 conflict is detected, or any
// renderer pool fails to build its minimum instances.
func Register(ctx context.Context, p RegisterParams) (*Binding, errorsx.Error) {
	maxScaleFactor := p.MaxScaleFactor
	if maxScaleFactor < 1 {
		maxScaleFactor = 1
	}
	if maxScaleFactor > 9 {
		maxScaleFactor = 9
	}

	sources := make(map[string]archive.Source)
	var proj4sSeen []string
	var attributions []string
	if p.AttributionText != "" {
		attributions = append(attributions, p.AttributionText)
	}

	minZoom, maxZoom := 0, 22
	var bounds, center []float64
	format := "pbf"

	for name, src := range p.Document.Sources {
		rawURL := src.URL()
		scheme, resolvedName, ok := glstyle.ParseSourceURL(rawURL)
		if !ok {
			continue
		}

		inputfile, filetype, resolveErr := p.DataResolver.Resolve(resolvedName)
		if resolveErr != nil {
			return nil, errorsx.Wrap(apperr.ErrFatalConfig, "source", name, "cause", resolveErr)
		}

		isArchiveA := scheme == glstyle.SchemeArchiveA
		if !isArchiveA || !isHTTPURL(inputfile) {
			if !isRegularNonzeroFile(inputfile) {
				return nil, errorsx.Wrap(apperr.ErrFatalConfig, "source", name, "inputfile", inputfile, "cause", archive.ErrNotRegularFile)
			}
		}

		var archiveSource archive.Source
		var info *archive.Info
		var infoErr errorsx.Error
		switch scheme {
		case glstyle.SchemeArchiveA:
			reader, openErr := p.ArchiveOpener.OpenArchiveA(inputfile)
			if openErr != nil {
				return nil, errorsx.Wrap(openErr, "source", name)
			}
			archiveSource = archive.NewArchiveASource(reader)
			info, infoErr = reader.GetInfo(ctx)
		case glstyle.SchemeArchiveB:
			reader, openErr := p.ArchiveOpener.OpenArchiveB(inputfile)
			if openErr != nil {
				return nil, errorsx.Wrap(openErr, "source", name)
			}
			archiveSource = archive.NewArchiveBSource(reader)
			info, infoErr = archiveSource.GetInfo(ctx)
		}
		if infoErr != nil {
			return nil, errorsx.Wrap(infoErr, "source", name)
		}

		sources[resolvedName] = archiveSource

		meta := glstyle.ArchiveMeta{Format: filetype}
		if info != nil {
			meta.Bounds = info.Bounds[:]
			meta.Center = info.Center[:]
			minZ, maxZ := float64(info.MinZoom), float64(info.MaxZoom)
			meta.MinZoom = &minZ
			meta.MaxZoom = &maxZ
			if info.Format != "" {
				meta.Format = info.Format
			}
			meta.Proj4 = info.Proj4

			minZoom, maxZoom = info.MinZoom, info.MaxZoom
			bounds = meta.Bounds
			center = meta.Center
			format = meta.Format

			if info.Proj4 != "" {
				proj4sSeen = append(proj4sSeen, info.Proj4)
			}
		}

		src.MergeTileJSON(meta)
		src.SetTiles(glstyle.TileTemplate(scheme, resolvedName, meta.Format))
		if p.AttributionText == "" {
			if attr := src.Attribution(); attr != "" {
				attributions = append(attributions, attr)
			}
		} else {
			// the override replaces this source's own attribution in the
			// published style document too, so a client reading the
			// rewritten styleJSON sees the same text as the tileJSON.
			src.SetAttribution(p.AttributionText)
		}
	}

	if validateErr := glstyle.ValidateDataProjection(proj4sSeen); validateErr != nil {
		return nil, validateErr
	}

	var dataProjection *projection.DataProjection
	if len(proj4sSeen) > 0 {
		dp, dpErr := projection.NewDataProjection(proj4sSeen[0])
		if dpErr != nil {
			return nil, dpErr
		}
		dataProjection = dp
	}

	if p.Document.Sprite != "" {
		p.Document.Sprite = glstyle.RewriteSpriteURI(p.Document.Sprite, p.ID, p.StyleJSONFolder)
	}
	if p.Document.Glyphs != "" {
		p.Document.Glyphs = glstyle.RewriteGlyphsURI(p.Document.Glyphs, p.ID, p.StyleJSONFolder)
	}
	p.Document.FlattenExtrusions()

	attributionText := glstyle.DedupeAttributions(attributions)

	styleJSON, marshalErr := p.Document.Marshal()
	if marshalErr != nil {
		return nil, marshalErr
	}

	fetch := p.BuildFetch(sources)

	renderersByScale := make([]*rendererpool.Pool[mbglrender.Renderer], maxScaleFactor)
	staticRenderersByScale := make([]*rendererpool.Pool[mbglrender.Renderer], maxScaleFactor)

	cleanup := func() {
		for _, pool := range renderersByScale {
			if pool != nil {
				_ = pool.Close(ctx)
			}
		}
		for _, pool := range staticRenderersByScale {
			if pool != nil {
				_ = pool.Close(ctx)
			}
		}
	}

	for s := 1; s <= maxScaleFactor; s++ {
		min, max := defaultBoundsForScale(s)

		tilePool, err := rendererpool.New(ctx, min, max,
			newRendererCreator(p.TileRendererFactory, styleJSON, s, mbglrender.ModeTile, fetch),
			destroyRenderer)
		if err != nil {
			cleanup()
			return nil, errorsx.Wrap(apperr.ErrFatalConfig, "style", p.ID, "scale", s, "mode", "tile", "cause", err)
		}
		renderersByScale[s-1] = tilePool

		staticPool, err := rendererpool.New(ctx, min, max,
			newRendererCreator(p.StaticRendererFactory, styleJSON, s, mbglrender.ModeStatic, fetch),
			destroyRenderer)
		if err != nil {
			cleanup()
			return nil, errorsx.Wrap(apperr.ErrFatalConfig, "style", p.ID, "scale", s, "mode", "static", "cause", err)
		}
		staticRenderersByScale[s-1] = staticPool
	}

	tileJSON := buildTileJSON(p.ID, minZoom, maxZoom, bounds, center, attributionText, format)

	return &Binding{
		ID:                     p.ID,
		Document:               p.Document,
		TileJSON:               tileJSON,
		PublicURL:              p.PublicURL,
		Sources:                sources,
		DataProjection:         dataProjection,
		LastModified:           time.Now(),
		Watermark:              p.Watermark,
		StaticAttributionText:  attributionText,
		MaxScaleFactor:         maxScaleFactor,
		renderersByScale:       renderersByScale,
		staticRenderersByScale: staticRenderersByScale,
	}, nil
}

func newRendererCreator(factory mbglrender.Factory, styleJSON []byte, scaleFactor int, mode mbglrender.Mode, fetch mbglrender.FetchFunc) func(context.Context) (mbglrender.Renderer, error) {
	return func(ctx context.Context) (mbglrender.Renderer, error) {
		return factory(ctx, styleJSON, scaleFactor, mode, fetch)
	}
}

func destroyRenderer(r mbglrender.Renderer) error {
	return r.Close()
}
