package webservices

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/ownmap/tileserver/styles"
)

// InfoService serves `GET /:id.json`, the tileJSON descriptor for a
// registered style (spec.md §6).
type InfoService struct {
	logger   *logpkg.Logger
	registry *styles.Registry
	chi.Router
}

func NewInfoService(logger *logpkg.Logger, registry *styles.Registry) *InfoService {
	is := &InfoService{logger, registry, chi.NewRouter()}
	is.Get("/{styleID}.json", is.handleGetTileJSON)
	return is
}

func (is *InfoService) handleGetTileJSON(w http.ResponseWriter, r *http.Request) {
	styleID := chi.URLParam(r, "styleID")

	binding, ok := is.registry.Get(styleID)
	if !ok {
		errorsx.HTTPJSONError(w, is.logger, errorsx.Errorf("style %q is not registered", styleID), http.StatusNotFound)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := binding.PublicURL
	if base == "" {
		base = fmt.Sprintf("%s://%s", scheme, r.Host)
	}

	tileJSON := *binding.TileJSON
	tileJSON.Tiles = []string{fmt.Sprintf("%s/%s/{z}/{x}/{y}.%s", base, binding.ID, tileJSON.Format)}

	render.JSON(w, r, tileJSON)
}
