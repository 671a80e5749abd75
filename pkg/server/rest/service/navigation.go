package service

import (
	"context"
	"errors"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/engine"
	"github.com/lintang-b-s/routingapi/pkg/engine/assembler"
	"github.com/lintang-b-s/routingapi/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/routingapi/pkg/snap"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
	"github.com/lintang-b-s/routingapi/pkg/util"
)

type RoutingEngine interface {
	Route(ctx context.Context, start, end datastructure.Coordinate) (*assembler.Route, error)
	Nearest(ctx context.Context, c datastructure.Coordinate, k int) ([]spatialindex.Neighbor, error)
	NearestWithin(ctx context.Context, c datastructure.Coordinate, radius float64, limit int) ([]spatialindex.Neighbor, error)
	Stats() engine.Stats
}

type NavigationService struct {
	engine RoutingEngine
}

func NewNavigationService(e RoutingEngine) *NavigationService {
	return &NavigationService{engine: e}
}

// ShortestPath returns the route between two lat/lon points. errors are wrapped with util.WrapErrorf
// so the http layer can pick a status, the engine error stays reachable with errors.As.
func (uc *NavigationService) ShortestPath(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64) (*assembler.Route, error) {
	route, err := uc.engine.Route(ctx,
		datastructure.NewCoordinate(srcLat, srcLon),
		datastructure.NewCoordinate(dstLat, dstLon))
	if err != nil {
		return nil, classify(err)
	}
	return route, nil
}

func (uc *NavigationService) NearestVertices(ctx context.Context, lat, lon float64, k int) ([]spatialindex.Neighbor, error) {
	nn, err := uc.engine.Nearest(ctx, datastructure.NewCoordinate(lat, lon), k)
	if err != nil {
		return nil, classify(err)
	}
	return nn, nil
}

// VerticesWithinRadius returns at most limit vertices within radius, radius in the snap metric unit.
func (uc *NavigationService) VerticesWithinRadius(ctx context.Context, lat, lon, radius float64, limit int) ([]spatialindex.Neighbor, error) {
	nn, err := uc.engine.NearestWithin(ctx, datastructure.NewCoordinate(lat, lon), radius, limit)
	if err != nil {
		return nil, classify(err)
	}
	return nn, nil
}

func (uc *NavigationService) Stats() engine.Stats {
	return uc.engine.Stats()
}

func classify(err error) error {
	var (
		tooFar  *snap.TooFarError
		noPath  *routingalgorithm.NoPathError
		costErr *datastructure.InvalidEdgeCostError
	)

	switch {
	case errors.Is(err, snap.ErrInvalidCoordinate):
		return util.WrapErrorf(err, util.ErrBadParamInput, "Invalid coordinates")
	case errors.Is(err, engine.ErrInvalidNeighborCount), errors.Is(err, engine.ErrInvalidRadius):
		return util.WrapErrorf(err, util.ErrBadParamInput, "Invalid nearest vertex query")
	case errors.As(err, &tooFar):
		return util.WrapErrorf(err, util.ErrNotFound, "Points too far from road network")
	case errors.As(err, &noPath):
		return util.WrapErrorf(err, util.ErrNotFound, "No route found")
	case errors.Is(err, snap.ErrEmptyIndex):
		return util.WrapErrorf(err, util.ErrServiceUnavailable, "Routing graph is not available")
	case errors.Is(err, engine.ErrNearestUnsupported):
		return util.WrapErrorf(err, util.ErrNotImplemented, "Nearest vertex search is not supported by the configured spatial index")
	case errors.Is(err, context.DeadlineExceeded):
		return util.WrapErrorf(err, util.ErrTimeout, "Route query timed out")
	case errors.Is(err, context.Canceled):
		return util.WrapErrorf(err, util.ErrCanceled, "Request canceled")
	case errors.As(err, &costErr):
		return util.WrapErrorf(err, util.ErrInternalServerError, "Routing graph has an invalid edge cost")
	default:
		return util.WrapErrorf(err, util.ErrInternalServerError, "internal server error")
	}
}
