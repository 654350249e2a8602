package webservices

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/projection"
	"github.com/ownmap/tileserver/render"
	"github.com/ownmap/tileserver/styles"
)

// TileService serves `GET /:id/:z/:x/:y[@Nx].:format` (spec.md §6).
type TileService struct {
	logger   *logpkg.Logger
	registry *styles.Registry
	pipeline *render.Pipeline
	chi.Router
}

func NewTileService(logger *logpkg.Logger, registry *styles.Registry, pipeline *render.Pipeline) *TileService {
	ts := &TileService{logger, registry, pipeline, chi.NewRouter()}
	ts.Get("/{styleID}/{z}/{x}/{yAndFormat}", ts.handleGetTile)
	return ts
}

func (ts *TileService) getBinding(styleID string) (*styles.Binding, errorsx.Error) {
	if styleID == "" {
		binding, ok := ts.registry.GetDefault()
		if !ok {
			return nil, errorsx.Errorf("no default style registered")
		}
		return binding, nil
	}
	binding, ok := ts.registry.Get(styleID)
	if !ok {
		return nil, errorsx.Errorf("style %q is not registered", styleID)
	}
	return binding, nil
}

func (ts *TileService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	styleID := chi.URLParam(r, "styleID")
	binding, err := ts.getBinding(styleID)
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), http.StatusNotFound)
		return
	}

	z, zErr := strconv.Atoi(chi.URLParam(r, "z"))
	x, xErr := strconv.Atoi(chi.URLParam(r, "x"))
	if zErr != nil || xErr != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Errorf("malformed tile coordinate"), http.StatusBadRequest)
		return
	}

	y, scale, format, parseErr := parseYAndFormat(chi.URLParam(r, "yAndFormat"))
	if parseErr != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(parseErr), http.StatusBadRequest)
		return
	}

	if z < 0 || z > 22 || !projection.ValidTileCoord(x, y, z) {
		errorsx.HTTPError(w, ts.logger, errorsx.Errorf("tile (%d,%d,%d) out of bounds", x, y, z), http.StatusNotFound)
		return
	}

	if r.Header.Get("Cache-Control") != "no-cache" {
		if ims, parseErr := http.ParseTime(r.Header.Get("If-Modified-Since")); parseErr == nil {
			if !binding.LastModified.After(ims) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	overlayQuery, overlayErr := parseOverlayQuery(r.URL.Query())
	if overlayErr != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(overlayErr), http.StatusBadRequest)
		return
	}

	centerPx := projection.Pixel{
		X: (float64(x) + 0.5) * projection.TileSize,
		Y: (float64(y) + 0.5) * projection.TileSize,
	}
	lon, lat := projection.Unpx(centerPx, float64(z))

	req := render.Request{
		Zoom:   float64(z),
		Lon:    lon,
		Lat:    lat,
		Width:  projection.TileSize,
		Height: projection.TileSize,
		Scale:  scale,
		Format: format,
	}

	image, renderErr := ts.pipeline.RespondImage(r.Context(), binding, req, overlayQuery, mbglrender.ModeTile)
	if renderErr != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(renderErr), statusForError(renderErr))
		return
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Last-Modified", image.LastModified.UTC().Format(http.TimeFormat))
	_, _ = w.Write(image.Data)
}

// parseYAndFormat splits "y[@Nx].format" into its parts.
func parseYAndFormat(s string) (y, scale int, format render.Format, err errorsx.Error) {
	dot := strings.LastIndex(s, ".")
	if dot < 0 {
		return 0, 0, "", errorsx.Errorf("malformed tile path %q: missing format", s)
	}
	yAndScale, formatStr := s[:dot], s[dot+1:]

	normalized, normErr := render.NormalizeFormat(formatStr)
	if normErr != nil {
		return 0, 0, "", normErr
	}

	scale = 1
	if at := strings.Index(yAndScale, "@"); at >= 0 {
		suffix := strings.TrimSuffix(yAndScale[at+1:], "x")
		yAndScale = yAndScale[:at]
		parsedScale, scaleErr := strconv.Atoi(suffix)
		if scaleErr != nil {
			return 0, 0, "", errorsx.Wrap(scaleErr, "param", "scale")
		}
		scale = parsedScale
	}

	yVal, yErr := strconv.Atoi(yAndScale)
	if yErr != nil {
		return 0, 0, "", errorsx.Wrap(yErr, "param", "y")
	}

	return yVal, scale, normalized, nil
}
