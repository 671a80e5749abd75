package spatialindex

import (
	"context"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"go.uber.org/zap"
)

const boxPadding = 1e-9

// EdgeNeighbor is the road segment closest to a query point.
type EdgeNeighbor struct {
	Edge     datastructure.Index
	ID       int64
	Source   datastructure.Index
	Target   datastructure.Index
	Distance float64
}

type edgeSpatial struct {
	edge datastructure.Index
	id   int64
	rect rtreego.Rect
}

func (e *edgeSpatial) Bounds() rtreego.Rect {
	return e.rect
}

// EdgeIndex indexes edge geometries by their bounding boxes ([lat, lon] order).
type EdgeIndex struct {
	tree   *rtreego.Rtree
	graph  *datastructure.Graph
	metric geo.Metric
}

func newPaddedRect(lo, hi datastructure.Coordinate) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{lo.Lat - boxPadding, lo.Lon - boxPadding},
		rtreego.Point{hi.Lat + boxPadding, hi.Lon + boxPadding},
	)
}

func NewEdgeIndex(g *datastructure.Graph, metric geo.Metric, log *zap.Logger) (*EdgeIndex, error) {
	objs := make([]rtreego.Spatial, 0, g.NumEdges())
	for i := 0; i < g.NumEdges(); i++ {
		geom := g.EdgeGeometry(datastructure.Index(i))
		lo, hi := geom[0], geom[0]
		for _, c := range geom[1:] {
			lo.Lat, lo.Lon = math.Min(lo.Lat, c.Lat), math.Min(lo.Lon, c.Lon)
			hi.Lat, hi.Lon = math.Max(hi.Lat, c.Lat), math.Max(hi.Lon, c.Lon)
		}
		rect, err := newPaddedRect(lo, hi)
		if err != nil {
			return nil, err
		}
		objs = append(objs, &edgeSpatial{edge: datastructure.Index(i), id: g.Edge(datastructure.Index(i)).ID, rect: rect})
	}

	tree := rtreego.NewTree(2, DefaultMinChildItems, DefaultMaxChildItems, objs...)
	log.Info("edge r-tree built", zap.Int("size", tree.Size()))

	return &EdgeIndex{tree: tree, graph: g, metric: metric}, nil
}

func (ei *EdgeIndex) Metric() geo.Metric {
	return ei.metric
}

func (ei *EdgeIndex) edgeDistance(p datastructure.Coordinate, e datastructure.Index) float64 {
	geom := ei.graph.EdgeGeometry(e)
	best := math.Inf(1)
	for i := 1; i < len(geom); i++ {
		best = math.Min(best, ei.metric.SegmentDistance(p, geom[i-1], geom[i]))
	}
	return best
}

// NearestEdge returns the edge whose geometry is closest to p, the lowest edge id among equidistant ones.
func (ei *EdgeIndex) NearestEdge(_ context.Context, p datastructure.Coordinate) (EdgeNeighbor, bool, error) {
	if ei.tree.Size() == 0 {
		return EdgeNeighbor{}, false, nil
	}

	// the nearest bounding box gives an upper bound for the exact distance
	seed := ei.tree.NearestNeighbor(rtreego.Point{p.Lat, p.Lon})
	if seed == nil {
		return EdgeNeighbor{}, false, nil
	}
	bound := ei.edgeDistance(p, seed.(*edgeSpatial).edge)

	lo, hi := ei.metric.SearchBox(p, bound)
	searchRect, err := newPaddedRect(lo, hi)
	if err != nil {
		return EdgeNeighbor{}, false, err
	}

	var best EdgeNeighbor
	found := false
	for _, obj := range ei.tree.SearchIntersect(searchRect) {
		cand := obj.(*edgeSpatial)
		d := ei.edgeDistance(p, cand.edge)
		if !found || d < best.Distance || (d == best.Distance && cand.id < best.ID) {
			edge := ei.graph.Edge(cand.edge)
			best = EdgeNeighbor{Edge: cand.edge, ID: cand.id, Source: edge.Source, Target: edge.Target, Distance: d}
			found = true
		}
	}

	return best, found, nil
}
