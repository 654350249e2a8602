package webservices

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/ownmap/tileserver/render"
	"github.com/ownmap/tileserver/styles"
)

// NewRouter wires the Info, Tile, and Static services onto one shared
// root router, per spec.md §6's `/:id/...` HTTP surface (no `/api/`
// prefix, unlike the teacher's own admin-heavy router — this server has
// no browsable front end to make room for).
//
// Each service still builds its own self-contained chi.Router in its
// constructor (the teacher's `NewXService(...) *XService` shape, usable
// standalone in tests), but since their route patterns all live at the
// same root level, composing them here means registering each pattern
// directly on one mux rather than chi.Mount-ing three handlers at "/" —
// chi.Mount claims its whole prefix for every method, so three mounts at
// "/" would shadow each other instead of coexisting.
//
// tracer must be non-nil: the render pipeline calls tracing.StartSpan
// unconditionally, which panics if no *tracing.Tracer reached the
// request context — callers that don't want trace files persisted
// still pass a Tracer wrapping io.Discard, matching the teacher's own
// unconditional tracing.StartSpan use in its renderer.
func NewRouter(logger *logpkg.Logger, tracer *tracing.Tracer, registry *styles.Registry, pipeline *render.Pipeline) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))

	info := NewInfoService(logger, registry)
	static := NewStaticService(logger, registry, pipeline)
	tile := NewTileService(logger, registry, pipeline)

	router.Get("/{styleID}.json", info.handleGetTileJSON)
	router.Get("/{styleID}/static/*", static.handleStatic)
	router.Get("/{styleID}/{z}/{x}/{yAndFormat}", tile.handleGetTile)

	return router
}
