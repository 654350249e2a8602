package webservices

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/overlay"
	"github.com/ownmap/tileserver/render"
)

// parseOverlayQuery builds an overlay.Query from the request's query
// string, shared by every overlay-capable endpoint (spec.md §6).
func parseOverlayQuery(q url.Values) (*overlay.Query, errorsx.Error) {
	latlng := overlay.ParseLatLng(q.Get("latlng"))

	out := &overlay.Query{
		Fill:            q.Get("fill"),
		Stroke:          q.Get("stroke"),
		Border:          q.Get("border"),
		LineCap:         q.Get("linecap"),
		LineJoin:        q.Get("linejoin"),
		LatLng:          latlng,
		AttributionText: q.Get("attributionText"),
	}

	if v := q.Get("width"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errorsx.Wrap(err, "param", "width")
		}
		out.Width = w
	}
	if v := q.Get("borderwidth"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errorsx.Wrap(err, "param", "borderwidth")
		}
		out.BorderWidth = w
	}
	if v := q.Get("padding"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errorsx.Wrap(err, "param", "padding")
		}
		out.Padding = p
	}
	if v := q.Get("maxzoom"); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errorsx.Wrap(err, "param", "maxzoom")
		}
		out.MaxZoom = z
	}

	globalStyle := overlay.PathStyle{Fill: out.Fill, Stroke: out.Stroke, Width: out.Width}
	for _, raw := range q["path"] {
		p, err := overlay.ParsePath(raw, latlng, globalStyle)
		if err != nil {
			return nil, errorsx.Wrap(err, "param", "path")
		}
		out.Paths = append(out.Paths, p)
	}
	for _, raw := range q["marker"] {
		m, err := overlay.ParseMarker(raw, latlng)
		if err != nil {
			return nil, errorsx.Wrap(err, "param", "marker")
		}
		out.Markers = append(out.Markers, m)
	}

	return out, nil
}

// parseSizeSpec parses "<W>x<H>[@Nx].:format" (spec.md §6) into its parts.
func parseSizeSpec(spec string) (width, height uint32, scale int, format render.Format, err errorsx.Error) {
	dot := strings.LastIndex(spec, ".")
	if dot < 0 {
		return 0, 0, 0, "", errorsx.Errorf("malformed size spec %q: missing format", spec)
	}
	dims, formatStr := spec[:dot], spec[dot+1:]

	normalized, normErr := render.NormalizeFormat(formatStr)
	if normErr != nil {
		return 0, 0, 0, "", normErr
	}
	format = normalized

	scale = 1
	if at := strings.Index(dims, "@"); at >= 0 {
		scaleSuffix := dims[at+1:]
		dims = dims[:at]
		n := strings.TrimSuffix(scaleSuffix, "x")
		parsedScale, scaleErr := strconv.Atoi(n)
		if scaleErr != nil {
			return 0, 0, 0, "", errorsx.Wrap(scaleErr, "param", "scale", "value", scaleSuffix)
		}
		scale = parsedScale
	}

	xIdx := strings.Index(dims, "x")
	if xIdx < 0 {
		return 0, 0, 0, "", errorsx.Errorf("malformed size spec %q: missing WxH", spec)
	}
	w, wErr := strconv.ParseUint(dims[:xIdx], 10, 32)
	if wErr != nil {
		return 0, 0, 0, "", errorsx.Wrap(wErr, "param", "width")
	}
	h, hErr := strconv.ParseUint(dims[xIdx+1:], 10, 32)
	if hErr != nil {
		return 0, 0, 0, "", errorsx.Wrap(hErr, "param", "height")
	}

	return uint32(w), uint32(h), scale, format, nil
}

// lowercaseQueryKeys returns q with every key lowercased, per spec.md §6's
// WMS-style front door ("query keys are lowercased").
func lowercaseQueryKeys(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[strings.ToLower(k)] = v
	}
	return out
}
