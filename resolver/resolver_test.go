package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSpriteReadsFromSpritesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sprite.png"), []byte("pngdata"), 0o644))

	r := New(dir, nil, nil)
	result, err := r.fetch(context.Background(), nil, "sprites://sprite.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("pngdata"), result.Data)
}

func TestFetchSpriteRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, nil, nil)
	_, err := r.fetch(context.Background(), nil, "sprites://../../etc/passwd")
	assert.Error(t, err)
}

type fakeAssembler struct {
	data []byte
}

func (f fakeAssembler) Assemble(ctx context.Context, fontstack, codepointRange string, allowedFonts []string) ([]byte, error) {
	return f.data, nil
}

func TestFetchFontDispatchesFontstackAndRange(t *testing.T) {
	r := New("", fakeAssembler{data: []byte("fontbytes")}, nil)
	result, err := r.fetch(context.Background(), nil, "fonts://Open Sans/0-255.pbf")
	require.NoError(t, err)
	assert.Equal(t, []byte("fontbytes"), result.Data)
}

func TestFetchFontRejectsMalformedPath(t *testing.T) {
	r := New("", fakeAssembler{}, nil)
	_, err := r.fetch(context.Background(), nil, "fonts://justonesegment")
	assert.Error(t, err)
}

func TestFetchHTTPPassesThroughBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	r := New("", nil, nil)
	result, err := r.fetch(context.Background(), nil, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), result.Data)
}

func TestFetchHTTPNon2xxSynthesizesEmptyResponseRatherThanFailingTheRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New("", nil, nil)
	result, err := r.fetch(context.Background(), nil, srv.URL)
	require.NoError(t, err)
	assert.Empty(t, result.Data)
}

func TestFetchHTTPTransportFailureSynthesizesEmptyResponse(t *testing.T) {
	r := New("", nil, nil)
	result, err := r.fetch(context.Background(), nil, "http://127.0.0.1:1/basemap/1/2/3.png")
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestFetchUnsupportedSchemeErrors(t *testing.T) {
	r := New("", nil, nil)
	_, err := r.fetch(context.Background(), nil, "ftp://example.com/file")
	assert.Error(t, err)
}

type fakeArchiveAReader struct {
	tiles map[[3]int][]byte
}

func (f *fakeArchiveAReader) GetTile(ctx context.Context, z, x, y int) (*archive.Tile, errorsx.Error) {
	data, ok := f.tiles[[3]int{z, x, y}]
	if !ok {
		return nil, nil
	}
	return &archive.Tile{Data: data}, nil
}

func (f *fakeArchiveAReader) GetInfo(ctx context.Context) (*archive.Info, errorsx.Error) {
	return &archive.Info{}, nil
}

func (f *fakeArchiveAReader) Close() error { return nil }

func TestFetchArchiveReturnsTileData(t *testing.T) {
	reader := &fakeArchiveAReader{tiles: map[[3]int][]byte{{1, 2, 3}: []byte("tiledata")}}
	sources := map[string]archive.Source{"basemap": archive.NewArchiveASource(reader)}

	r := New("", nil, nil)
	result, err := r.fetch(context.Background(), sources, "archiveA://basemap/1/2/3.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("tiledata"), result.Data)
}

func TestFetchArchiveUnknownSourceErrors(t *testing.T) {
	r := New("", nil, nil)
	_, err := r.fetch(context.Background(), map[string]archive.Source{}, "archiveA://missing/1/2/3.png")
	assert.Error(t, err)
}

func TestFetchArchiveMissingTileSynthesizesEmptyResponse(t *testing.T) {
	reader := &fakeArchiveAReader{tiles: map[[3]int][]byte{}}
	sources := map[string]archive.Source{"basemap": archive.NewArchiveASource(reader)}

	r := New("", nil, nil)
	result, err := r.fetch(context.Background(), sources, "archiveA://basemap/1/2/3.png")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Data)
}

func TestParseTileCoordPath(t *testing.T) {
	z, x, y, format, err := parseTileCoordPath("/4/5/6.pbf")
	require.NoError(t, err)
	assert.Equal(t, 4, z)
	assert.Equal(t, 5, x)
	assert.Equal(t, 6, y)
	assert.Equal(t, "pbf", format)
}

func TestParseTileCoordPathRejectsMalformed(t *testing.T) {
	_, _, _, _, err := parseTileCoordPath("/only/two")
	assert.Error(t, err)
}

func TestParseTileCoordPathRejectsMissingExtension(t *testing.T) {
	_, _, _, _, err := parseTileCoordPath("/4/5/6")
	assert.Error(t, err)
}
