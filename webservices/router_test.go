package webservices

import (
	"context"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/ownmap/tileserver/archive"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/render"
	"github.com/ownmap/tileserver/styles"
	"github.com/ownmap/tileserver/styles/glstyle"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *styles.Registry) {
	t.Helper()

	logger := logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
	registry := styles.NewRegistry()
	t.Cleanup(func() { _ = registry.Close(context.Background()) })

	fake := mbglrender.NewFakeRendererFactory(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	doc := &glstyle.Document{Version: 8, Name: "test-style", Sources: map[string]glstyle.Source{}, Layers: []glstyle.Layer{}}

	_, err := registry.Register(context.Background(), styles.RegisterParams{
		ID:             "demo",
		Document:       doc,
		MaxScaleFactor: 1,
		DataResolver:   styles.MapDataResolver{},
		ArchiveOpener:  noArchiveOpener{},
		BuildFetch: func(sources map[string]archive.Source) mbglrender.FetchFunc {
			return func(ctx context.Context, url string) (*mbglrender.FetchResult, error) { return nil, nil }
		},
		TileRendererFactory:   fake,
		StaticRendererFactory: fake,
	})
	require.NoError(t, err)

	pipeline := render.NewPipeline(render.Options{})
	tracer := tracing.NewTracer(io.Discard)
	router := NewRouter(logger, tracer, registry, pipeline)
	return router, registry
}

type noArchiveOpener struct{}

func (noArchiveOpener) OpenArchiveA(inputfile string) (archive.ArchiveAReader, errorsx.Error) {
	return nil, errorsx.Errorf("no archive-A sources used in this test")
}

func (noArchiveOpener) OpenArchiveB(inputfile string) (archive.ArchiveBReader, errorsx.Error) {
	return nil, errorsx.Errorf("no archive-B sources used in this test")
}

func TestRouterServesTile(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo/3/2/3.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.NotEmpty(t, w.Body.Bytes())
}

func TestRouterServesTileUnknownStyleReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope/3/2/3.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterServesTileJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"demo"`)
}

func TestRouterServesStaticCenterZoom(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo/static/0,0,2/300x200.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestRouterServesStaticBBox(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo/static/-1,-1,1,1/300x200.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterServesStaticAutoWithMarker(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo/static/auto/300x200.png?marker=0,0|default", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterStaticAutoWithoutOverlayIsBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo/static/auto/300x200.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterTileOutOfBoundsReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/demo/3/99/99.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
