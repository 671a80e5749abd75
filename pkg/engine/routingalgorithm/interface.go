package routingalgorithm

import "github.com/lintang-b-s/routingapi/pkg/datastructure"

type Graph interface {
	NumVertices() int
	OutArcs(v datastructure.Index) []datastructure.Arc
	Vertex(v datastructure.Index) datastructure.Vertex
	Edge(e datastructure.Index) datastructure.Edge
}
