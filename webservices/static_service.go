package webservices

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/ownmap/tileserver/apperr"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/overlay"
	"github.com/ownmap/tileserver/projection"
	"github.com/ownmap/tileserver/render"
	"github.com/ownmap/tileserver/styles"
)

// staticTileMargin is the padding, in tile-margin units, requested for
// every static render so the pipeline's overshoot clamp (spec.md §4.4)
// has room to correct a window that would otherwise sample past the
// poles.
const staticTileMargin = 1

// StaticService serves the `/:id/static/...` family of endpoints from
// spec.md §6: center, bbox, auto-fit, and the WMS-style front door.
type StaticService struct {
	logger   *logpkg.Logger
	registry *styles.Registry
	pipeline *render.Pipeline
	chi.Router
}

func NewStaticService(logger *logpkg.Logger, registry *styles.Registry, pipeline *render.Pipeline) *StaticService {
	ss := &StaticService{logger, registry, pipeline, chi.NewRouter()}
	ss.Get("/{styleID}/static/*", ss.handleStatic)
	return ss
}

func (ss *StaticService) getBinding(styleID string) (*styles.Binding, errorsx.Error) {
	if styleID == "" {
		binding, ok := ss.registry.GetDefault()
		if !ok {
			return nil, errorsx.Errorf("no default style registered")
		}
		return binding, nil
	}
	binding, ok := ss.registry.Get(styleID)
	if !ok {
		return nil, errorsx.Errorf("style %q is not registered", styleID)
	}
	return binding, nil
}

func (ss *StaticService) handleStatic(w http.ResponseWriter, r *http.Request) {
	styleID := chi.URLParam(r, "styleID")
	binding, bindingErr := ss.getBinding(styleID)
	if bindingErr != nil {
		errorsx.HTTPError(w, ss.logger, errorsx.Wrap(bindingErr), http.StatusNotFound)
		return
	}

	overlayQuery, overlayErr := parseOverlayQuery(r.URL.Query())
	if overlayErr != nil {
		errorsx.HTTPError(w, ss.logger, errorsx.Wrap(overlayErr), http.StatusBadRequest)
		return
	}

	rest := chi.URLParam(r, "*")

	var req render.Request
	var buildErr errorsx.Error
	switch {
	case rest == "":
		req, buildErr = ss.buildFrontDoorRequest(r.URL.Query(), binding)
	default:
		req, buildErr = ss.buildPathRequest(rest, binding, overlayQuery)
	}
	if buildErr != nil {
		errorsx.HTTPError(w, ss.logger, errorsx.Wrap(buildErr), statusForError(buildErr))
		return
	}

	image, renderErr := ss.pipeline.RespondImage(r.Context(), binding, req, overlayQuery, mbglrender.ModeStatic)
	if renderErr != nil {
		errorsx.HTTPError(w, ss.logger, errorsx.Wrap(renderErr), statusForError(renderErr))
		return
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Last-Modified", image.LastModified.UTC().Format(http.TimeFormat))
	_, _ = w.Write(image.Data)
}

// buildPathRequest parses the `raw`/center/bbox/auto path segments after
// "/static/" (spec.md §6).
func (ss *StaticService) buildPathRequest(rest string, binding *styles.Binding, overlayQuery *overlay.Query) (render.Request, errorsx.Error) {
	segments := strings.Split(rest, "/")

	raw := false
	idx := 0
	if len(segments) > 0 && segments[0] == "raw" {
		raw = true
		idx = 1
	}

	if idx >= len(segments) {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "missing static path segments")
	}

	if segments[idx] == "auto" {
		if idx+1 >= len(segments) {
			return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "missing size spec")
		}
		return ss.buildAutoRequest(segments[idx+1], binding, overlayQuery)
	}

	if idx+1 >= len(segments) {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "missing size spec")
	}
	return ss.buildCenterOrBBoxRequest(segments[idx], segments[idx+1], raw, binding, overlayQuery)
}

func (ss *StaticService) buildCenterOrBBoxRequest(centerOrBBox, sizeSpec string, raw bool, binding *styles.Binding, overlayQuery *overlay.Query) (render.Request, errorsx.Error) {
	width, height, scale, format, sizeErr := parseSizeSpec(sizeSpec)
	if sizeErr != nil {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", sizeErr.Error())
	}

	var lon, lat, zoom, bearing, pitch float64

	if at := strings.Index(centerOrBBox, "@"); at >= 0 {
		xyz := centerOrBBox[:at]
		bearingPitch := centerOrBBox[at+1:]

		parts := strings.Split(xyz, ",")
		if len(parts) != 3 {
			return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed center", "value", centerOrBBox)
		}
		x, y, z, parseErr := parseFloat3(parts[0], parts[1], parts[2])
		if parseErr != nil {
			return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", parseErr.Error())
		}
		zoom = z

		bpParts := strings.SplitN(bearingPitch, ",", 2)
		b, bErr := strconv.ParseFloat(bpParts[0], 64)
		if bErr != nil {
			return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed bearing", "value", bpParts[0])
		}
		bearing = b
		if len(bpParts) == 2 {
			p, pErr := strconv.ParseFloat(bpParts[1], 64)
			if pErr != nil {
				return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed pitch", "value", bpParts[1])
			}
			pitch = p
		}

		lon, lat = reprojectIfNeeded(x, y, raw, binding)
	} else {
		parts := strings.Split(centerOrBBox, ",")
		switch len(parts) {
		case 3:
			x, y, z, parseErr := parseFloat3(parts[0], parts[1], parts[2])
			if parseErr != nil {
				return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", parseErr.Error())
			}
			zoom = z
			lon, lat = reprojectIfNeeded(x, y, raw, binding)
		case 4:
			bounds, boundsErr := parseBBoxString(centerOrBBox, raw, binding)
			if boundsErr != nil {
				return render.Request{}, boundsErr
			}
			padding := overlayQuery.Padding
			if padding == 0 {
				padding = projection.DefaultPadding
			}

			lon, lat = projection.BBoxCenter(bounds)
			zoom = projection.CalcZForBBox(bounds, width, height, padding)
		default:
			return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed center/bbox", "value", centerOrBBox)
		}
	}

	return render.Request{
		Zoom: zoom, Lon: lon, Lat: lat, Bearing: bearing, Pitch: pitch,
		Width: width, Height: height, Scale: scale, Format: format,
		TileMargin: staticTileMargin,
	}, nil
}

func (ss *StaticService) buildAutoRequest(sizeSpec string, binding *styles.Binding, overlayQuery *overlay.Query) (render.Request, errorsx.Error) {
	width, height, scale, format, sizeErr := parseSizeSpec(sizeSpec)
	if sizeErr != nil {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", sizeErr.Error())
	}

	bounds, ok := autoFitBounds(overlayQuery)
	if !ok {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "auto endpoint requires at least one path or marker coordinate")
	}

	padding := overlayQuery.Padding
	if padding == 0 {
		padding = projection.DefaultPadding
	}

	lon, lat := projection.BBoxCenter(bounds)
	zoom := projection.CalcZForBBox(bounds, width, height, padding)
	if overlayQuery.MaxZoom != 0 && zoom > overlayQuery.MaxZoom {
		zoom = overlayQuery.MaxZoom
	}

	return render.Request{
		Zoom: zoom, Lon: lon, Lat: lat,
		Width: width, Height: height, Scale: scale, Format: format,
		TileMargin: staticTileMargin,
	}, nil
}

func (ss *StaticService) buildFrontDoorRequest(q url.Values, binding *styles.Binding) (render.Request, errorsx.Error) {
	q = lowercaseQueryKeys(q)

	bboxStr := q.Get("bbox")
	if bboxStr == "" {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "missing bbox")
	}
	bounds, boundsErr := parseBBoxString(bboxStr, true, binding)
	if boundsErr != nil {
		return render.Request{}, boundsErr
	}

	width, widthErr := strconv.ParseUint(q.Get("width"), 10, 32)
	if widthErr != nil {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed width")
	}
	height, heightErr := strconv.ParseUint(q.Get("height"), 10, 32)
	if heightErr != nil {
		return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed height")
	}

	scale := 1
	if s := q.Get("scale"); s != "" {
		parsed, scaleErr := strconv.Atoi(s)
		if scaleErr != nil {
			return render.Request{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed scale")
		}
		scale = parsed
	}

	formatStr := strings.TrimPrefix(q.Get("format"), "image/")
	format, formatErr := render.NormalizeFormat(formatStr)
	if formatErr != nil {
		return render.Request{}, formatErr
	}

	lon, lat := projection.BBoxCenter(bounds)
	zoom := projection.CalcZForBBox(bounds, uint32(width), uint32(height), projection.DefaultPadding)

	return render.Request{
		Zoom: zoom, Lon: lon, Lat: lat,
		Width: uint32(width), Height: uint32(height), Scale: scale, Format: format,
		TileMargin: staticTileMargin,
	}, nil
}

func parseBBoxString(s string, raw bool, binding *styles.Binding) (projection.Bounds, errorsx.Error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return projection.Bounds{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", "malformed bbox", "value", s)
	}
	minx, miny, maxx, maxy, parseErr := parseFloat4(parts[0], parts[1], parts[2], parts[3])
	if parseErr != nil {
		return projection.Bounds{}, errorsx.Wrap(apperr.ErrBadRequest, "reason", parseErr.Error())
	}

	minLon, minLat := reprojectIfNeeded(minx, miny, raw, binding)
	maxLon, maxLat := reprojectIfNeeded(maxx, maxy, raw, binding)

	return projection.Bounds{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}, nil
}

// reprojectIfNeeded forward-transforms (x,y) through the style's declared
// data projection unless raw coordinates were requested (spec.md §6:
// "raw selects raw Web-Mercator coordinates; absent uses style-declared
// projection").
func reprojectIfNeeded(x, y float64, raw bool, binding *styles.Binding) (lon, lat float64) {
	if raw || binding.DataProjection == nil {
		return x, y
	}
	return binding.DataProjection.Forward(x, y)
}

// autoFitBounds unions every path point and marker location in q into a
// single bounding box (spec.md §6's auto endpoint).
func autoFitBounds(q *overlay.Query) (projection.Bounds, bool) {
	var bounds projection.Bounds
	empty := true

	for _, p := range q.Paths {
		for _, pt := range p.Points {
			bounds = projection.UnionBounds(bounds, projection.PointBounds(pt.Lng, pt.Lat), empty)
			empty = false
		}
	}
	for _, m := range q.Markers {
		bounds = projection.UnionBounds(bounds, projection.PointBounds(m.Location.Lng, m.Location.Lat), empty)
		empty = false
	}

	return bounds, !empty
}

func parseFloat3(a, b, c string) (x, y, z float64, err errorsx.Error) {
	x, xErr := strconv.ParseFloat(a, 64)
	y, yErr := strconv.ParseFloat(b, 64)
	z, zErr := strconv.ParseFloat(c, 64)
	if xErr != nil || yErr != nil || zErr != nil {
		return 0, 0, 0, errorsx.Errorf("malformed coordinate triple (%q,%q,%q)", a, b, c)
	}
	return x, y, z, nil
}

func parseFloat4(a, b, c, d string) (w, x, y, z float64, err errorsx.Error) {
	w, wErr := strconv.ParseFloat(a, 64)
	x, xErr := strconv.ParseFloat(b, 64)
	y, yErr := strconv.ParseFloat(c, 64)
	z, zErr := strconv.ParseFloat(d, 64)
	if wErr != nil || xErr != nil || yErr != nil || zErr != nil {
		return 0, 0, 0, 0, errorsx.Errorf("malformed coordinate quad (%q,%q,%q,%q)", a, b, c, d)
	}
	return w, x, y, z, nil
}
