package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLatLng(t *testing.T) {
	assert.True(t, ParseLatLng("1"))
	assert.True(t, ParseLatLng("true"))
	assert.True(t, ParseLatLng("TRUE"))
	assert.False(t, ParseLatLng("0"))
	assert.False(t, ParseLatLng(""))
}

func TestParsePathPlainCoordinates(t *testing.T) {
	path, err := ParsePath("-0.1,51.5|2.3,48.8", false, PathStyle{})
	require.NoError(t, err)
	assert.Equal(t, []LngLat{{Lng: -0.1, Lat: 51.5}, {Lng: 2.3, Lat: 48.8}}, path.Points)
}

func TestParsePathLatLngSwapsOrder(t *testing.T) {
	path, err := ParsePath("51.5,-0.1", true, PathStyle{})
	require.NoError(t, err)
	assert.Equal(t, []LngLat{{Lng: -0.1, Lat: 51.5}}, path.Points)
}

func TestParsePathStyleTokensOverrideGlobal(t *testing.T) {
	path, err := ParsePath("fill:red|stroke:blue|width:3|0,0|1,1", false, PathStyle{Fill: "green", Width: 1})
	require.NoError(t, err)
	assert.Equal(t, PathStyle{Fill: "red", Stroke: "blue", Width: 3}, path.Style)
	assert.Len(t, path.Points, 2)
}

func TestParsePathEncodedPolyline(t *testing.T) {
	// "_p~iF~ps|U_ulLnnqC_mqNvxq`@" decodes to [[38.5,-120.2],[40.7,-120.95],[43.252,-126.453]]
	path, err := ParsePath("enc:_p~iF~ps|U_ulLnnqC_mqNvxq`@", false, PathStyle{})
	require.NoError(t, err)
	require.Len(t, path.Points, 3)
	assert.InDelta(t, -120.2, path.Points[0].Lng, 1e-3)
	assert.InDelta(t, 38.5, path.Points[0].Lat, 1e-3)
}

func TestParsePathRejectsBadWidth(t *testing.T) {
	_, err := ParsePath("width:notanumber|0,0", false, PathStyle{})
	assert.Error(t, err)
}

func TestParseMarkerRequiresLocationAndIcon(t *testing.T) {
	_, err := ParseMarker("0,0", false)
	assert.Error(t, err)
}

func TestParseMarkerParsesOptions(t *testing.T) {
	m, err := ParseMarker("1,2|pin|scale:2.5|offset:3,4|color:#ff0000", false)
	require.NoError(t, err)
	assert.Equal(t, LngLat{Lng: 1, Lat: 2}, m.Location)
	assert.Equal(t, "pin", m.Icon)
	assert.Equal(t, 2.5, m.Scale)
	assert.Equal(t, 3.0, m.OffsetX)
	assert.Equal(t, 4.0, m.OffsetY)
	assert.Equal(t, "#ff0000", m.Color)
}

func TestParseMarkerDefaultsScaleToOne(t *testing.T) {
	m, err := ParseMarker("1,2|pin", false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Scale)
}

func TestQueryIsEmpty(t *testing.T) {
	assert.True(t, (*Query)(nil).IsEmpty())
	assert.True(t, (&Query{}).IsEmpty())

	withPath := &Query{Paths: []*Path{{}}}
	assert.False(t, withPath.IsEmpty())

	withMarker := &Query{Markers: []*Marker{{}}}
	assert.False(t, withMarker.IsEmpty())
}
