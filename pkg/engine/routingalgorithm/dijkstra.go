package routingalgorithm

import (
	"context"
	"fmt"
	"math"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/util"
)

// ctx is polled every ctxCheckInterval settled vertices.
const ctxCheckInterval = 1024

// NoPathError is returned when the end vertex is unreachable from the start vertex.
type NoPathError struct {
	StartVertex int64
	EndVertex   int64
}

func (e *NoPathError) Error() string {
	return fmt.Sprintf("no path from vertex %d to vertex %d", e.StartVertex, e.EndVertex)
}

// PathEdge is one traversed edge. AggCost is the cost from the start up to and including this edge.
type PathEdge struct {
	Edge    datastructure.Index
	Reverse bool
	From    datastructure.Index
	To      datastructure.Index
	Cost    float64
	AggCost float64
}

type Path struct {
	Start datastructure.Index
	End   datastructure.Index
	Edges []PathEdge
	Cost  float64
}

type cameFromPair struct {
	Arc    datastructure.Arc
	NodeID datastructure.Index
}

type RouteAlgorithm struct {
	graph Graph
}

func NewRouteAlgorithm(graph Graph) *RouteAlgorithm {
	return &RouteAlgorithm{graph: graph}
}

// ShortestPathDijkstra runs a single-source dijkstra from `from` and stops once `to` is settled.
// vertices with equal tentative cost are settled in ascending index order, which is ascending id order.
func (rt *RouteAlgorithm) ShortestPathDijkstra(ctx context.Context, from, to datastructure.Index) (Path, error) {
	n := rt.graph.NumVertices()
	if int(from) >= n {
		return Path{}, fmt.Errorf("%w: start index %d", datastructure.ErrVertexNotFound, from)
	}
	if int(to) >= n {
		return Path{}, fmt.Errorf("%w: end index %d", datastructure.ErrVertexNotFound, to)
	}

	if from == to {
		return Path{Start: from, End: to, Edges: []PathEdge{}}, nil
	}

	if err := ctx.Err(); err != nil {
		return Path{}, err
	}

	pq := datastructure.NewMinHeap[datastructure.Index]()
	pq.Insert(datastructure.PriorityQueueNode[datastructure.Index]{Rank: 0, Item: from})

	// per-query working set indexed by vertex index
	costSoFar := make([]float64, n)
	for i := range costSoFar {
		costSoFar[i] = math.Inf(1)
	}
	costSoFar[from] = 0.0

	cameFrom := make([]cameFromPair, n)
	settled := make([]bool, n)
	settledCount := 0

	for !pq.IsEmpty() {
		current, _ := pq.ExtractMin()
		settled[current.Item] = true
		settledCount++

		if settledCount%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Path{}, err
			}
		}

		if current.Item == to {
			return rt.buildPath(from, to, cameFrom, costSoFar), nil
		}

		for _, arc := range rt.graph.OutArcs(current.Item) {
			if !(arc.Cost > 0) {
				return Path{}, &datastructure.InvalidEdgeCostError{
					EdgeID:  rt.graph.Edge(arc.Edge).ID,
					Cost:    arc.Cost,
					Reverse: arc.Reverse,
				}
			}

			if settled[arc.Head] {
				continue
			}

			newCost := costSoFar[current.Item] + arc.Cost
			// relax edge
			if newCost < costSoFar[arc.Head] {
				costSoFar[arc.Head] = newCost
				cameFrom[arc.Head] = cameFromPair{Arc: arc, NodeID: current.Item}

				node := datastructure.PriorityQueueNode[datastructure.Index]{Rank: newCost, Item: arc.Head}
				if pq.Contains(arc.Head) {
					pq.DecreaseKey(node)
				} else {
					pq.Insert(node)
				}
			}
		}
	}

	return Path{}, &NoPathError{
		StartVertex: rt.graph.Vertex(from).ID,
		EndVertex:   rt.graph.Vertex(to).ID,
	}
}

func (rt *RouteAlgorithm) buildPath(from, to datastructure.Index, cameFrom []cameFromPair,
	costSoFar []float64) Path {
	pathEdges := []PathEdge{}

	curr := to
	for curr != from {
		prev := cameFrom[curr]
		pathEdges = append(pathEdges, PathEdge{
			Edge:    prev.Arc.Edge,
			Reverse: prev.Arc.Reverse,
			From:    prev.NodeID,
			To:      curr,
			Cost:    prev.Arc.Cost,
			AggCost: costSoFar[curr],
		})
		curr = prev.NodeID
	}

	return Path{
		Start: from,
		End:   to,
		Edges: util.ReverseG(pathEdges),
		Cost:  costSoFar[to],
	}
}
