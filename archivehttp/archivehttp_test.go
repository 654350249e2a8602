package archivehttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsNonHTTPInputfile(t *testing.T) {
	_, err := Open("/local/path/tiles.mbtiles")
	assert.Error(t, err)
}

func TestOpenAcceptsHTTPAndHTTPS(t *testing.T) {
	_, err := Open("http://tiles.example.com/basemap")
	require.NoError(t, err)

	_, err = Open("https://tiles.example.com/basemap")
	require.NoError(t, err)
}

func TestGetTileFetchesTemplatedURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.Write([]byte("tilebytes"))
	}))
	defer srv.Close()

	reader, err := Open(srv.URL)
	require.NoError(t, err)

	tile, getErr := reader.GetTile(context.Background(), 3, 4, 5)
	require.NoError(t, getErr)
	assert.Equal(t, []byte("tilebytes"), tile.Data)
	assert.Equal(t, "/3/4/5.png", gotPath)
}

func TestGetTile404MapsToUpstreamEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	reader, err := Open(srv.URL)
	require.NoError(t, err)

	_, getErr := reader.GetTile(context.Background(), 1, 1, 1)
	require.Error(t, getErr)
	assert.ErrorIs(t, errorsx.Cause(getErr), apperr.ErrUpstreamEmpty)
}

func TestGetTileServerErrorMapsToUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reader, err := Open(srv.URL)
	require.NoError(t, err)

	_, getErr := reader.GetTile(context.Background(), 1, 1, 1)
	require.Error(t, getErr)
	assert.ErrorIs(t, errorsx.Cause(getErr), apperr.ErrUpstreamError)
}

func TestGetInfoReturnsDefaultZoomRange(t *testing.T) {
	reader, err := Open("http://tiles.example.com")
	require.NoError(t, err)

	info, infoErr := reader.GetInfo(context.Background())
	require.NoError(t, infoErr)
	assert.Equal(t, 0, info.MinZoom)
	assert.Equal(t, 22, info.MaxZoom)
}
