package engine

import (
	"fmt"
	"time"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/lintang-b-s/routingapi/pkg/kv"
	"github.com/lintang-b-s/routingapi/pkg/snap"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
	"go.uber.org/zap"
)

const (
	IndexRtree      = "rtree"
	IndexH3         = "h3"
	IndexBruteForce = "bruteforce"
)

type BuildOptions struct {
	SpatialIndex    string
	SnapMode        snap.Mode
	SnapMetric      string
	MaxSnapDistance float64
	RouteCacheSize  int
	QueryTimeout    time.Duration
	// Store holds the h3 buckets, only read when SpatialIndex is IndexH3.
	Store kv.Store
}

// Build validates g, builds the spatial index and snapper described by opts and returns a ready engine.
func Build(g *datastructure.Graph, opts BuildOptions, logger *zap.Logger) (*Engine, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation: %w", err)
	}

	metric, err := geo.NewMetric(opts.SnapMetric)
	if err != nil {
		return nil, err
	}

	components := routingalgorithm.KosarajuSCC(g)
	logger.Info("strongly connected components", zap.Int("count", components.Count()),
		zap.Int("largest", components.LargestSize()))

	engineOpts := []Option{
		WithRouteCache(opts.RouteCacheSize),
		WithQueryTimeout(opts.QueryTimeout),
		WithReachability(components),
	}

	var snapper *snap.Snapper
	switch opts.SnapMode {
	case snap.ModeEdgeEndpoint:
		logger.Info("building edge index...")
		edgeIndex, err := spatialindex.NewEdgeIndex(g, metric, logger)
		if err != nil {
			return nil, err
		}
		snapper = snap.NewEdgeEndpointSnapper(edgeIndex, g, opts.MaxSnapDistance, metric.Name())
	case snap.ModeVertex, "":
		vertexIndex, err := buildVertexIndex(g, metric, opts, logger)
		if err != nil {
			return nil, err
		}
		snapper = snap.NewVertexSnapper(vertexIndex, opts.MaxSnapDistance, metric.Name())
		if ns, ok := vertexIndex.(NeighborSearcher); ok {
			engineOpts = append(engineOpts, WithNeighborSearch(ns))
		}
	default:
		return nil, fmt.Errorf("unknown snap mode %q", opts.SnapMode)
	}

	logger.Info("routing engine ready",
		zap.Int("vertices", g.NumVertices()), zap.Int("edges", g.NumEdges()),
		zap.String("spatial_index", opts.SpatialIndex), zap.String("snap_mode", string(snapper.Mode())),
		zap.String("metric", metric.Name()), zap.Float64("max_snap_distance", opts.MaxSnapDistance))

	return NewEngine(g, snapper, logger, engineOpts...)
}

func buildVertexIndex(g *datastructure.Graph, metric geo.Metric, opts BuildOptions, logger *zap.Logger) (snap.VertexIndex, error) {
	switch opts.SpatialIndex {
	case IndexRtree, "":
		logger.Info("building vertex r-tree...")
		return spatialindex.BuildVertexRtree(g, metric, logger), nil
	case IndexBruteForce:
		return spatialindex.NewBruteForce(g, metric), nil
	case IndexH3:
		if opts.Store == nil {
			return nil, fmt.Errorf("spatial index %q needs a kv store", IndexH3)
		}
		return kv.NewH3Index(opts.Store, metric, spatialindex.NewBruteForce(g, metric), logger)
	default:
		return nil, fmt.Errorf("unknown spatial index %q", opts.SpatialIndex)
	}
}
