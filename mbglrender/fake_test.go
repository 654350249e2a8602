package mbglrender

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRendererFillsRequestedDimensions(t *testing.T) {
	factory := NewFakeRendererFactory(color.RGBA{R: 100, G: 150, B: 200, A: 255})
	renderer, err := factory(context.Background(), nil, 1, ModeTile, nil)
	require.NoError(t, err)

	result, renderErr := renderer.Render(context.Background(), RenderParams{Width: 4, Height: 3})
	require.NoError(t, renderErr)

	assert.Equal(t, 4, result.Width)
	assert.Equal(t, 3, result.Height)
	assert.Len(t, result.RGBA, 4*3*4)
}

func TestFakeRendererPremultipliesFillColor(t *testing.T) {
	factory := NewFakeRendererFactory(color.RGBA{R: 200, G: 100, B: 50, A: 128})
	renderer, err := factory(context.Background(), nil, 1, ModeTile, nil)
	require.NoError(t, err)

	result, renderErr := renderer.Render(context.Background(), RenderParams{Width: 1, Height: 1})
	require.NoError(t, renderErr)

	assert.Equal(t, byte(100), result.RGBA[0])
	assert.Equal(t, byte(50), result.RGBA[1])
	assert.Equal(t, byte(25), result.RGBA[2])
	assert.Equal(t, byte(128), result.RGBA[3])
}

func TestFakeRendererInvokesFetchURLs(t *testing.T) {
	var fetched []string
	fetch := func(ctx context.Context, url string) (*FetchResult, error) {
		fetched = append(fetched, url)
		return &FetchResult{}, nil
	}

	factory := NewFakeRendererFactory(color.RGBA{A: 255}, "sprites://icon.png", "fonts://stack/0-255.pbf")
	renderer, err := factory(context.Background(), nil, 1, ModeStatic, fetch)
	require.NoError(t, err)

	_, renderErr := renderer.Render(context.Background(), RenderParams{Width: 1, Height: 1})
	require.NoError(t, renderErr)

	assert.Equal(t, []string{"sprites://icon.png", "fonts://stack/0-255.pbf"}, fetched)
}

func TestFakeRendererCloseMarksClosed(t *testing.T) {
	factory := NewFakeRendererFactory(color.RGBA{A: 255})
	renderer, err := factory(context.Background(), nil, 1, ModeTile, nil)
	require.NoError(t, err)

	fake := renderer.(*FakeRenderer)
	require.NoError(t, fake.Close())
	assert.True(t, fake.Closed)
}
