package styles

import (
	"context"
	"image/color"
	"os"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/archive"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/rendererpool"
	"github.com/ownmap/tileserver/styles/glstyle"
	"github.com/ownmap/tileserver/testmocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNonzeroFile(path string) error {
	return os.WriteFile(path, []byte("not-really-sqlite"), 0o644)
}

func writeEmptyFile(path string) error {
	return os.WriteFile(path, nil, 0o644)
}

type fakeArchiveOpener struct {
	a *testmocks.FakeArchiveA
	b *testmocks.FakeArchiveB
}

func (f fakeArchiveOpener) OpenArchiveA(inputfile string) (archive.ArchiveAReader, errorsx.Error) {
	return f.a, nil
}

func (f fakeArchiveOpener) OpenArchiveB(inputfile string) (archive.ArchiveBReader, errorsx.Error) {
	return f.b, nil
}

func minimalDocument(sourceName string, scheme glstyle.ArchiveScheme) *glstyle.Document {
	return &glstyle.Document{
		Version: 8,
		Name:    "test-style",
		Sources: map[string]glstyle.Source{
			sourceName: {"type": "vector", "url": string(scheme) + "://" + sourceName},
		},
		Layers: []glstyle.Layer{},
	}
}

func registerParamsFixture(doc *glstyle.Document, opener fakeArchiveOpener, resolverMap MapDataResolver, inputfile string) RegisterParams {
	fake := mbglrender.NewFakeRendererFactory(color.RGBA{A: 255})
	return RegisterParams{
		ID:             "test",
		Document:       doc,
		MaxScaleFactor: 1,
		DataResolver:   resolverMap,
		ArchiveOpener:  opener,
		BuildFetch: func(sources map[string]archive.Source) mbglrender.FetchFunc {
			return func(ctx context.Context, url string) (*mbglrender.FetchResult, error) { return nil, nil }
		},
		TileRendererFactory:   fake,
		StaticRendererFactory: fake,
	}
}

func TestRegisterSucceedsWithArchiveBSource(t *testing.T) {
	doc := minimalDocument("basemap", glstyle.SchemeArchiveB)
	resolverMap := MapDataResolver{"basemap": ResolvedSource{Inputfile: t.TempDir() + "/basemap.sqlite", Filetype: "pbf"}}

	// the registration file-existence check only applies outside the
	// archive-A+HTTP exemption, so give archive-B a real, nonzero file.
	require.NoError(t, writeNonzeroFile(resolverMap["basemap"].Inputfile))

	opener := fakeArchiveOpener{a: testmocks.NewFakeArchiveA(), b: testmocks.NewFakeArchiveB()}
	binding, err := Register(context.Background(), registerParamsFixture(doc, opener, resolverMap, resolverMap["basemap"].Inputfile))
	require.NoError(t, err)
	defer binding.Close(context.Background())

	assert.Equal(t, "test", binding.ID)
	assert.Contains(t, binding.Sources, "basemap")
	assert.Equal(t, 1, binding.MaxScaleFactor)
}

func TestRegisterAttributionOverrideReplacesSourceAttributionInDocument(t *testing.T) {
	doc := minimalDocument("basemap", glstyle.SchemeArchiveB)
	doc.Sources["basemap"]["attribution"] = "original attribution"
	resolverMap := MapDataResolver{"basemap": ResolvedSource{Inputfile: t.TempDir() + "/basemap.sqlite", Filetype: "pbf"}}
	require.NoError(t, writeNonzeroFile(resolverMap["basemap"].Inputfile))

	opener := fakeArchiveOpener{a: testmocks.NewFakeArchiveA(), b: testmocks.NewFakeArchiveB()}
	params := registerParamsFixture(doc, opener, resolverMap, resolverMap["basemap"].Inputfile)
	params.AttributionText = "override attribution"

	binding, err := Register(context.Background(), params)
	require.NoError(t, err)
	defer binding.Close(context.Background())

	assert.Equal(t, "override attribution", binding.StaticAttributionText)
	assert.Equal(t, "override attribution", doc.Sources["basemap"].Attribution())
}

func TestRegisterFailsWhenSourceUnresolved(t *testing.T) {
	doc := minimalDocument("missing", glstyle.SchemeArchiveB)
	opener := fakeArchiveOpener{a: testmocks.NewFakeArchiveA(), b: testmocks.NewFakeArchiveB()}

	_, err := Register(context.Background(), registerParamsFixture(doc, opener, MapDataResolver{}, ""))
	assert.Error(t, err)
}

func TestRegisterFailsOnZeroByteFile(t *testing.T) {
	doc := minimalDocument("basemap", glstyle.SchemeArchiveB)
	path := t.TempDir() + "/empty.sqlite"
	require.NoError(t, writeEmptyFile(path))
	resolverMap := MapDataResolver{"basemap": ResolvedSource{Inputfile: path, Filetype: "pbf"}}

	opener := fakeArchiveOpener{a: testmocks.NewFakeArchiveA(), b: testmocks.NewFakeArchiveB()}
	_, err := Register(context.Background(), registerParamsFixture(doc, opener, resolverMap, path))
	assert.Error(t, err)
}

func TestRegistryRegisterReplacesPriorBindingAndClosesIt(t *testing.T) {
	reg := NewRegistry()

	doc := minimalDocument("basemap", glstyle.SchemeArchiveB)
	path := t.TempDir() + "/basemap.sqlite"
	require.NoError(t, writeNonzeroFile(path))
	resolverMap := MapDataResolver{"basemap": ResolvedSource{Inputfile: path, Filetype: "pbf"}}
	opener := fakeArchiveOpener{a: testmocks.NewFakeArchiveA(), b: testmocks.NewFakeArchiveB()}

	params := registerParamsFixture(doc, opener, resolverMap, path)
	params.ID = "dup"

	first, err := reg.Register(context.Background(), params)
	require.NoError(t, err)

	second, err := reg.Register(context.Background(), params)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	got, ok := reg.Get("dup")
	require.True(t, ok)
	assert.Same(t, second, got)

	firstPool, poolErr := first.PoolFor(1, mbglrender.ModeTile)
	require.NoError(t, poolErr)
	_, acquireErr := firstPool.Acquire(context.Background())
	assert.ErrorIs(t, acquireErr, rendererpool.ErrClosed)

	require.NoError(t, reg.Close(context.Background()))
}
