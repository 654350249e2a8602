package webservices

import (
	"testing"

	"github.com/ownmap/tileserver/overlay"
	"github.com/ownmap/tileserver/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCenterOrBBoxRequestDefaultsPaddingWhenQueryOmitsIt(t *testing.T) {
	ss := &StaticService{}
	binding := &styles.Binding{}

	req, err := ss.buildCenterOrBBoxRequest("-10,-10,10,10", "300x200.png", true, binding, &overlay.Query{})
	require.NoError(t, err)

	padded, err := ss.buildCenterOrBBoxRequest("-10,-10,10,10", "300x200.png", true, binding, &overlay.Query{Padding: 0.1})
	require.NoError(t, err)

	assert.Equal(t, padded.Zoom, req.Zoom)
}

func TestBuildCenterOrBBoxRequestHonorsPaddingQueryParam(t *testing.T) {
	ss := &StaticService{}
	binding := &styles.Binding{}

	tight, err := ss.buildCenterOrBBoxRequest("-10,-10,10,10", "300x200.png", true, binding, &overlay.Query{Padding: 0.01})
	require.NoError(t, err)

	loose, err := ss.buildCenterOrBBoxRequest("-10,-10,10,10", "300x200.png", true, binding, &overlay.Query{Padding: 0.5})
	require.NoError(t, err)

	// more padding means more margin around the bbox, so the solver picks
	// a lower zoom to fit it in the same output size.
	assert.Greater(t, tight.Zoom, loose.Zoom)
}
