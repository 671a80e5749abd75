package spatialindex

import (
	"context"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
)

// BruteForce scans every vertex on each query. it is the reference the other indexes are tested against,
// and is usable for very small graphs.
type BruteForce struct {
	vertices []datastructure.Vertex
	metric   geo.Metric
}

func NewBruteForce(g *datastructure.Graph, metric geo.Metric) *BruteForce {
	return &BruteForce{vertices: g.Vertices(), metric: metric}
}

func (bf *BruteForce) Metric() geo.Metric {
	return bf.metric
}

func (bf *BruteForce) Nearest(_ context.Context, p datastructure.Coordinate) (Neighbor, bool, error) {
	if len(bf.vertices) == 0 {
		return Neighbor{}, false, nil
	}

	best := Neighbor{}
	for i, v := range bf.vertices {
		n := Neighbor{
			Vertex:   datastructure.Index(i),
			ID:       v.ID,
			Coord:    v.Coord,
			Distance: bf.metric.Distance(p, v.Coord),
		}
		if i == 0 || closer(n, best) {
			best = n
		}
	}
	return best, true, nil
}
