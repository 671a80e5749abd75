package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/engine/assembler"
	"github.com/lintang-b-s/routingapi/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/routingapi/pkg/snap"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
	"go.uber.org/zap"
)

var (
	ErrNearestUnsupported   = errors.New("nearest k search is not available for this spatial index")
	ErrInvalidNeighborCount = errors.New("neighbor count must be at least 1")
	ErrInvalidRadius        = errors.New("search radius must be a positive number")
)

// SnapFailedError tells which endpoint of a route query could not be mapped onto the graph.
type SnapFailedError struct {
	Endpoint string
	Err      error
}

func (e *SnapFailedError) Error() string {
	return fmt.Sprintf("snap %s point: %v", e.Endpoint, e.Err)
}

func (e *SnapFailedError) Unwrap() error {
	return e.Err
}

type Snapper interface {
	Snap(ctx context.Context, p datastructure.Coordinate, role snap.Role) (snap.Result, error)
	Mode() snap.Mode
	MaxDistance() float64
	Metric() string
}

type NeighborSearcher interface {
	NearestK(p datastructure.Coordinate, k int) []spatialindex.Neighbor
	WithinRadius(p datastructure.Coordinate, radius float64, limit int) []spatialindex.Neighbor
}

type routeKey struct {
	from datastructure.Index
	to   datastructure.Index
}

type Stats struct {
	Vertices        int     `json:"vertices"`
	Edges           int     `json:"edges"`
	Arcs            int     `json:"arcs"`
	SnapMode        string  `json:"snap_mode"`
	SnapMetric      string  `json:"snap_metric"`
	MaxSnapDistance float64 `json:"max_snap_distance"`
	CachedRoutes    int     `json:"cached_routes"`
	Components      int     `json:"components,omitempty"`
	LargestComp     int     `json:"largest_component,omitempty"`
}

type Engine struct {
	graph        *datastructure.Graph
	snapper      Snapper
	routeAlgo    *routingalgorithm.RouteAlgorithm
	neighbors    NeighborSearcher
	components   *routingalgorithm.Components
	routeCache   *lru.Cache[routeKey, *assembler.Route]
	queryTimeout time.Duration
	log          *zap.Logger
}

type Option func(*Engine) error

// WithRouteCache keeps up to size assembled routes keyed by snapped vertex pair. size 0 disables it.
func WithRouteCache(size int) Option {
	return func(e *Engine) error {
		if size <= 0 {
			e.routeCache = nil
			return nil
		}
		cache, err := lru.New[routeKey, *assembler.Route](size)
		if err != nil {
			return err
		}
		e.routeCache = cache
		return nil
	}
}

func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		e.queryTimeout = d
		return nil
	}
}

func WithNeighborSearch(ns NeighborSearcher) Option {
	return func(e *Engine) error {
		e.neighbors = ns
		return nil
	}
}

// WithReachability answers unreachable queries from the component dag without running dijkstra.
// only use it on a validated graph, otherwise a negative arc that dijkstra would report is skipped.
func WithReachability(c *routingalgorithm.Components) Option {
	return func(e *Engine) error {
		e.components = c
		return nil
	}
}

func NewEngine(graph *datastructure.Graph, snapper Snapper, logger *zap.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		graph:     graph,
		snapper:   snapper,
		routeAlgo: routingalgorithm.NewRouteAlgorithm(graph),
		log:       logger,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) snapEndpoint(ctx context.Context, p datastructure.Coordinate, role snap.Role) (snap.Result, error) {
	res, err := e.snapper.Snap(ctx, p, role)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, snap.ErrEmptyIndex) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return snap.Result{}, err
	}
	return snap.Result{}, &SnapFailedError{Endpoint: role.String(), Err: err}
}

// Route snaps both coordinates and returns the least-cost route between the snapped vertices.
// the returned route may be shared with other callers through the cache and must not be modified.
func (e *Engine) Route(ctx context.Context, start, end datastructure.Coordinate) (*assembler.Route, error) {
	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, err := e.snapEndpoint(ctx, start, snap.RoleStart)
	if err != nil {
		return nil, err
	}
	to, err := e.snapEndpoint(ctx, end, snap.RoleEnd)
	if err != nil {
		return nil, err
	}

	e.log.Debug("snapped route endpoints",
		zap.Int64("start_vertex", from.VertexID), zap.Float64("start_distance", from.Distance),
		zap.Int64("end_vertex", to.VertexID), zap.Float64("end_distance", to.Distance))

	key := routeKey{from: from.Vertex, to: to.Vertex}
	if e.routeCache != nil {
		if route, ok := e.routeCache.Get(key); ok {
			return route, nil
		}
	}

	if e.components != nil && !e.components.Reachable(from.Vertex, to.Vertex) {
		return nil, &routingalgorithm.NoPathError{StartVertex: from.VertexID, EndVertex: to.VertexID}
	}

	path, err := e.routeAlgo.ShortestPathDijkstra(ctx, from.Vertex, to.Vertex)
	if err != nil {
		return nil, err
	}

	route := assembler.Assemble(e.graph, path)
	if e.routeCache != nil {
		e.routeCache.Add(key, route)
	}

	e.log.Debug("route found",
		zap.Int("segments", len(route.Segments)), zap.Float64("total_cost", route.TotalCost),
		zap.Float64("total_length", route.TotalLength))
	return route, nil
}

func (e *Engine) checkNeighborQuery(ctx context.Context, c datastructure.Coordinate) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: lat %v lon %v", snap.ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	if e.neighbors == nil {
		return ErrNearestUnsupported
	}
	return ctx.Err()
}

// Nearest returns the k nearest vertices to c, ordered by distance then id.
func (e *Engine) Nearest(ctx context.Context, c datastructure.Coordinate, k int) ([]spatialindex.Neighbor, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNeighborCount, k)
	}
	if err := e.checkNeighborQuery(ctx, c); err != nil {
		return nil, err
	}
	return e.neighbors.NearestK(c, k), nil
}

// NearestWithin returns at most limit vertices within radius of c (in the snap metric unit),
// ordered by distance then id.
func (e *Engine) NearestWithin(ctx context.Context, c datastructure.Coordinate, radius float64, limit int) ([]spatialindex.Neighbor, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRadius, radius)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNeighborCount, limit)
	}
	if err := e.checkNeighborQuery(ctx, c); err != nil {
		return nil, err
	}
	return e.neighbors.WithinRadius(c, radius, limit), nil
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Vertices:        e.graph.NumVertices(),
		Edges:           e.graph.NumEdges(),
		Arcs:            e.graph.NumArcs(),
		SnapMode:        string(e.snapper.Mode()),
		SnapMetric:      e.snapper.Metric(),
		MaxSnapDistance: e.snapper.MaxDistance(),
	}
	if e.routeCache != nil {
		s.CachedRoutes = e.routeCache.Len()
	}
	if e.components != nil {
		s.Components = e.components.Count()
		s.LargestComp = e.components.LargestSize()
	}
	return s
}

func (e *Engine) Graph() *datastructure.Graph {
	return e.graph
}
