package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/routingapi/pkg/engine"
	"github.com/lintang-b-s/routingapi/pkg/engine/assembler"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
	"github.com/lintang-b-s/routingapi/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var errMissingCoordinates = errors.New("Missing coordinates")

type NavigationService interface {
	ShortestPath(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64) (*assembler.Route, error)
	NearestVertices(ctx context.Context, lat, lon float64, k int) ([]spatialindex.Neighbor, error)
	VerticesWithinRadius(ctx context.Context, lat, lon, radius float64, limit int) ([]spatialindex.Neighbor, error)
	Stats() engine.Stats
}

type NavigationHandler struct {
	svc      NavigationService
	metrics  *Metrics
	validate *validator.Validate
	trans    ut.Translator
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return validate, trans
}

func NavigatorRouter(r chi.Router, svc NavigationService, m *Metrics) {
	validate, trans := newValidator()
	handler := &NavigationHandler{svc: svc, metrics: m, validate: validate, trans: trans}

	r.Get("/health", handler.Health)
	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Get("/route", handler.ShortestPath)
			r.Get("/nearest", handler.NearestVertices)
		})
	})
}

// RouteRequest model info
//
//	@Description	query parameters of a route request
type RouteRequest struct {
	StartLon *float64 `validate:"required,gte=-180,lte=180"`
	StartLat *float64 `validate:"required,gte=-90,lte=90"`
	EndLon   *float64 `validate:"required,gte=-180,lte=180"`
	EndLat   *float64 `validate:"required,gte=-90,lte=90"`
	Simplify bool
}

// queryFloat returns nil for a missing parameter.
func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New("invalid value for " + key)
	}
	return &v, nil
}

func bindRouteRequest(r *http.Request) (*RouteRequest, error) {
	req := &RouteRequest{}
	var err error
	if req.StartLon, err = queryFloat(r, "start_lon"); err != nil {
		return nil, err
	}
	if req.StartLat, err = queryFloat(r, "start_lat"); err != nil {
		return nil, err
	}
	if req.EndLon, err = queryFloat(r, "end_lon"); err != nil {
		return nil, err
	}
	if req.EndLat, err = queryFloat(r, "end_lat"); err != nil {
		return nil, err
	}
	if req.StartLon == nil || req.StartLat == nil || req.EndLon == nil || req.EndLat == nil {
		return nil, errMissingCoordinates
	}
	req.Simplify, _ = strconv.ParseBool(r.URL.Query().Get("simplify"))
	return req, nil
}

func routeOutcome(err error) string {
	if err == nil {
		return "found"
	}
	return util.ErrorCodeOf(err).String()
}

// ShortestPath
//
//	@Summary		least cost route between two coordinates
//	@Description	snaps both points to the nearest road vertex and runs dijkstra on the road graph. the response is a GeoJSON FeatureCollection with one LineString per traversed edge.
//	@Tags			navigations
//	@Param			start_lon	query	number	true	"start longitude"
//	@Param			start_lat	query	number	true	"start latitude"
//	@Param			end_lon		query	number	true	"end longitude"
//	@Param			end_lat		query	number	true	"end latitude"
//	@Param			simplify	query	bool	false	"simplify segment geometry with douglas peucker"
//	@Produce		application/json
//	@Router			/route [get]
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
//	@Failure		503	{object}	ErrResponse
//	@Failure		504	{object}	ErrResponse
func (h *NavigationHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	req, err := bindRouteRequest(r)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := h.validate.Struct(*req); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return
	}

	route, err := h.svc.ShortestPath(r.Context(), *req.StartLat, *req.StartLon, *req.EndLat, *req.EndLon)
	h.metrics.observeRoute(routeOutcome(err))
	if err != nil {
		render.Render(w, r, RenderServiceError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(route, req.Simplify))
}

// RenderRouteResponse builds the GeoJSON FeatureCollection of a route.
func RenderRouteResponse(route *assembler.Route, simplify bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, seg := range route.Segments {
		coords := seg.Geometry
		if simplify {
			coords = geo.RamesDouglasPeucker(coords, geo.DOUGLAS_PEUCKER_THRESHOLDS)
		}
		ls := make(orb.LineString, 0, len(coords))
		for _, c := range coords {
			ls = append(ls, orb.Point{c.Lon, c.Lat})
		}

		f := geojson.NewFeature(ls)
		f.Properties["id"] = seg.EdgeID
		f.Properties["length_m"] = util.RoundFloat(seg.Length, 2)
		f.Properties["cost"] = seg.Cost
		f.Properties["reverse"] = seg.Reverse
		fc.Append(f)
	}

	fc.ExtraMembers = geojson.Properties{
		"total_distance_km": util.RoundFloat(route.TotalLength/1000, 3),
		"total_distance_m":  util.RoundFloat(route.TotalLength, 2),
		"duration_minutes":  util.RoundFloat(route.TotalCost/60, 1),
		"total_cost":        route.TotalCost,
		"segment_count":     len(route.Segments),
		"start_vertex":      route.StartVertex,
		"end_vertex":        route.EndVertex,
		"polyline":          route.Polyline(),
	}
	return fc
}

// NearestResponse model info
//
//	@Description	nearest road vertices of a coordinate
type NearestResponse struct {
	Vertices []NearestVertex `json:"vertices"`
}

type NearestVertex struct {
	ID       int64   `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance float64 `json:"distance"`
}

const maxNearestVertices = 100

type NearestRequest struct {
	Lat    *float64 `validate:"required,gte=-90,lte=90"`
	Lon    *float64 `validate:"required,gte=-180,lte=180"`
	K      int      `validate:"gte=1,lte=100"`
	Radius *float64 `validate:"omitempty,gt=0"`
}

// NearestVertices
//
//	@Summary		nearest road vertices of a coordinate
//	@Tags			navigations
//	@Param			lon	query	number	true	"longitude"
//	@Param			lat	query	number	true	"latitude"
//	@Param			k		query	int		false	"number of vertices (default 1, or 100 with radius)"
//	@Param			radius	query	number	false	"only vertices within this distance, in the snap metric unit"
//	@Produce		application/json
//	@Router			/nearest [get]
//	@Success		200	{object}	NearestResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		501	{object}	ErrResponse
func (h *NavigationHandler) NearestVertices(w http.ResponseWriter, r *http.Request) {
	req := NearestRequest{K: 1}
	var err error
	if req.Lat, err = queryFloat(r, "lat"); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if req.Lon, err = queryFloat(r, "lon"); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if req.Radius, err = queryFloat(r, "radius"); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if req.Radius != nil {
		req.K = maxNearestVertices
	}
	if raw := r.URL.Query().Get("k"); raw != "" {
		if req.K, err = strconv.Atoi(raw); err != nil {
			render.Render(w, r, ErrInvalidRequest(errors.New("invalid value for k")))
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return
	}

	var nn []spatialindex.Neighbor
	if req.Radius != nil {
		nn, err = h.svc.VerticesWithinRadius(r.Context(), *req.Lat, *req.Lon, *req.Radius, req.K)
	} else {
		nn, err = h.svc.NearestVertices(r.Context(), *req.Lat, *req.Lon, req.K)
	}
	if err != nil {
		render.Render(w, r, RenderServiceError(err))
		return
	}

	resp := &NearestResponse{Vertices: make([]NearestVertex, 0, len(nn))}
	for _, n := range nn {
		resp.Vertices = append(resp.Vertices, NearestVertex{
			ID:       n.ID,
			Lat:      n.Coord.Lat,
			Lon:      n.Coord.Lon,
			Distance: n.Distance,
		})
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// HealthResponse model info
//
//	@Description	health check response
type HealthResponse struct {
	Status string `json:"status"`
	engine.Stats
}

// Health
//
//	@Summary	health check with graph statistics
//	@Produce	application/json
//	@Router		/health [get]
//	@Success	200	{object}	HealthResponse
func (h *NavigationHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, HealthResponse{Status: "healthy", Stats: h.svc.Stats()})
}
