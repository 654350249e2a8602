package webservices

import (
	"net/url"
	"testing"

	"github.com/ownmap/tileserver/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverlayQueryParsesPathsAndMarkers(t *testing.T) {
	q := url.Values{
		"fill":   {"red"},
		"stroke": {"blue"},
		"path":   {"0,0|1,1"},
		"marker": {"2,2|pin"},
	}
	out, err := parseOverlayQuery(q)
	require.NoError(t, err)
	require.Len(t, out.Paths, 1)
	require.Len(t, out.Markers, 1)
	assert.Equal(t, "red", out.Fill)
	assert.Equal(t, "blue", out.Stroke)
}

func TestParseOverlayQueryRejectsBadNumericParam(t *testing.T) {
	q := url.Values{"padding": {"notanumber"}}
	_, err := parseOverlayQuery(q)
	assert.Error(t, err)
}

func TestParseOverlayQueryEmptyIsEmptyQuery(t *testing.T) {
	out, err := parseOverlayQuery(url.Values{})
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestParseSizeSpecBasic(t *testing.T) {
	w, h, scale, format, err := parseSizeSpec("400x300.png")
	require.NoError(t, err)
	assert.EqualValues(t, 400, w)
	assert.EqualValues(t, 300, h)
	assert.Equal(t, 1, scale)
	assert.Equal(t, render.FormatPNG, format)
}

func TestParseSizeSpecWithScale(t *testing.T) {
	w, h, scale, format, err := parseSizeSpec("400x300@2x.jpg")
	require.NoError(t, err)
	assert.EqualValues(t, 400, w)
	assert.EqualValues(t, 300, h)
	assert.Equal(t, 2, scale)
	assert.Equal(t, render.FormatJPEG, format)
}

func TestParseSizeSpecMissingFormat(t *testing.T) {
	_, _, _, _, err := parseSizeSpec("400x300")
	assert.Error(t, err)
}

func TestParseSizeSpecMissingDimensions(t *testing.T) {
	_, _, _, _, err := parseSizeSpec("400.png")
	assert.Error(t, err)
}

func TestParseSizeSpecBadFormat(t *testing.T) {
	_, _, _, _, err := parseSizeSpec("400x300.bmp")
	assert.Error(t, err)
}

func TestLowercaseQueryKeys(t *testing.T) {
	q := url.Values{"BBOX": {"1,2,3,4"}, "Width": {"100"}}
	out := lowercaseQueryKeys(q)
	assert.Equal(t, []string{"1,2,3,4"}, out["bbox"])
	assert.Equal(t, []string{"100"}, out["width"])
}
