package assembler

import (
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/routingapi/pkg/util"
)

type Graph interface {
	Vertex(v datastructure.Index) datastructure.Vertex
	Edge(e datastructure.Index) datastructure.Edge
	EdgeGeometry(e datastructure.Index) []datastructure.Coordinate
}

// Segment is one traversed edge. Geometry is ordered in travel direction.
type Segment struct {
	EdgeID   int64
	Reverse  bool
	Geometry []datastructure.Coordinate
	Length   float64 // meter
	Cost     float64
	AggCost  float64
}

type Route struct {
	Segments    []Segment
	TotalCost   float64
	TotalLength float64 // meter
	StartVertex int64
	EndVertex   int64
}

// Assemble turns a path into a route. segment geometry is copied, never aliased to the graph.
func Assemble(g Graph, path routingalgorithm.Path) *Route {
	route := &Route{
		Segments:    make([]Segment, 0, len(path.Edges)),
		StartVertex: g.Vertex(path.Start).ID,
		EndVertex:   g.Vertex(path.End).ID,
	}

	for _, pe := range path.Edges {
		edge := g.Edge(pe.Edge)

		src := g.EdgeGeometry(pe.Edge)
		var geom []datastructure.Coordinate
		if pe.Reverse {
			geom = util.ReverseG(src)
		} else {
			geom = make([]datastructure.Coordinate, len(src))
			copy(geom, src)
		}

		route.Segments = append(route.Segments, Segment{
			EdgeID:   edge.ID,
			Reverse:  pe.Reverse,
			Geometry: geom,
			Length:   edge.Length,
			Cost:     pe.Cost,
			AggCost:  pe.AggCost,
		})
		route.TotalLength += edge.Length
	}

	if len(path.Edges) > 0 {
		route.TotalCost = path.Edges[len(path.Edges)-1].AggCost
	}

	return route
}

func (r *Route) IsEmpty() bool {
	return len(r.Segments) == 0
}

// Coordinates joins all segment geometries into one polyline, dropping the repeated
// junction point between consecutive segments.
func (r *Route) Coordinates() []datastructure.Coordinate {
	coords := []datastructure.Coordinate{}
	for _, seg := range r.Segments {
		for i, c := range seg.Geometry {
			if i == 0 && len(coords) > 0 && coords[len(coords)-1] == c {
				continue
			}
			coords = append(coords, c)
		}
	}
	return coords
}

func (r *Route) Polyline() string {
	return datastructure.RenderPath(r.Coordinates())
}

func (r *Route) EdgeIDs() []int64 {
	ids := make([]int64, 0, len(r.Segments))
	for _, seg := range r.Segments {
		ids = append(ids, seg.EdgeID)
	}
	return ids
}
