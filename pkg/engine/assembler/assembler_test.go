package assembler

import (
	"context"
	"testing"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/engine/routingalgorithm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func c(lon, lat float64) datastructure.Coordinate {
	return datastructure.NewCoordinate(lat, lon)
}

// 1 --e100--> 2 <--e200-- 3, e200 has a reverse cost so 2 -> 3 walks it backwards.
func newTestGraph(t *testing.T) *datastructure.Graph {
	vertices := []datastructure.Vertex{
		datastructure.NewVertex(1, 0, 0),
		datastructure.NewVertex(2, 0, 1),
		datastructure.NewVertex(3, 0, 2),
	}
	edges := []datastructure.EdgeInput{
		{
			ID: 100, Source: 1, Target: 2, Cost: 10, Length: 100,
			Geometry: []datastructure.Coordinate{c(0, 0), c(0.5, 0.1), c(1, 0)},
		},
		{
			ID: 200, Source: 3, Target: 2, Cost: 7, ReverseCost: 5, HasReverse: true, Length: 60,
			Geometry: []datastructure.Coordinate{c(2, 0), c(1.5, -0.2), c(1.2, -0.1), c(1, 0)},
		},
	}
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	return g
}

func shortestPath(t *testing.T, g *datastructure.Graph, from, to int64) routingalgorithm.Path {
	s, ok := g.VertexIndex(from)
	require.True(t, ok)
	e, ok := g.VertexIndex(to)
	require.True(t, ok)
	p, err := routingalgorithm.NewRouteAlgorithm(g).ShortestPathDijkstra(context.Background(), s, e)
	require.NoError(t, err)
	return p
}

func TestAssemble(t *testing.T) {
	g := newTestGraph(t)

	t.Run("forward then reverse traversal", func(t *testing.T) {
		route := Assemble(g, shortestPath(t, g, 1, 3))

		require.Len(t, route.Segments, 2)
		assert.Equal(t, []int64{100, 200}, route.EdgeIDs())
		assert.Equal(t, int64(1), route.StartVertex)
		assert.Equal(t, int64(3), route.EndVertex)
		assert.Equal(t, 15.0, route.TotalCost)
		assert.Equal(t, 160.0, route.TotalLength)

		assert.False(t, route.Segments[0].Reverse)
		assert.True(t, route.Segments[1].Reverse)
		assert.Equal(t, 5.0, route.Segments[1].Cost)
		assert.Equal(t, []datastructure.Coordinate{c(1, 0), c(1.2, -0.1), c(1.5, -0.2), c(2, 0)},
			route.Segments[1].Geometry)

		// the graph keeps its source-to-target geometry
		e, _ := g.EdgeIndex(200)
		assert.Equal(t, c(2, 0), g.EdgeGeometry(e)[0])
	})

	t.Run("segments are continuous", func(t *testing.T) {
		route := Assemble(g, shortestPath(t, g, 1, 3))
		for i := 1; i < len(route.Segments); i++ {
			prev := route.Segments[i-1].Geometry
			curr := route.Segments[i].Geometry
			assert.InDelta(t, prev[len(prev)-1].Lat, curr[0].Lat, 1e-9)
			assert.InDelta(t, prev[len(prev)-1].Lon, curr[0].Lon, 1e-9)
		}

		coords := route.Coordinates()
		assert.Len(t, coords, 6)
		assert.Equal(t, c(0, 0), coords[0])
		assert.Equal(t, c(2, 0), coords[len(coords)-1])

		decoded, err := datastructure.DecodePath(route.Polyline())
		require.NoError(t, err)
		assert.Len(t, decoded, 6)
	})

	t.Run("mutating a route does not touch the graph", func(t *testing.T) {
		route := Assemble(g, shortestPath(t, g, 1, 2))
		route.Segments[0].Geometry[0] = c(9, 9)

		e, _ := g.EdgeIndex(100)
		assert.Equal(t, c(0, 0), g.EdgeGeometry(e)[0])
	})

	t.Run("empty path", func(t *testing.T) {
		route := Assemble(g, shortestPath(t, g, 2, 2))
		assert.True(t, route.IsEmpty())
		assert.Equal(t, 0.0, route.TotalCost)
		assert.Equal(t, 0.0, route.TotalLength)
		assert.Empty(t, route.Coordinates())
		assert.Equal(t, int64(2), route.StartVertex)
		assert.Equal(t, int64(2), route.EndVertex)
	})
}

func TestAssembleTotalLengthIsSumOfLengths(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	n := 40
	vertices := make([]datastructure.Vertex, 0, n)
	for i := 0; i < n; i++ {
		vertices = append(vertices, datastructure.NewVertex(int64(i+1), float64(i), 0))
	}
	edges := make([]datastructure.EdgeInput, 0, n-1)
	for i := 0; i < n-1; i++ {
		e := datastructure.EdgeInput{
			ID: int64(i + 1), Source: int64(i + 1), Target: int64(i + 2),
			Cost: 1 + r.Float64(), Length: r.Float64() * 500,
		}
		// every other edge is digitized the other way round
		if i%2 == 1 {
			e.Source, e.Target = e.Target, e.Source
			e.ReverseCost, e.HasReverse = e.Cost, true
		}
		edges = append(edges, e)
	}
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)

	route := Assemble(g, shortestPath(t, g, 1, int64(n)))
	require.Len(t, route.Segments, n-1)

	want := 0.0
	for i := len(route.Segments) - 1; i >= 0; i-- {
		want += route.Segments[i].Length
	}
	assert.InDelta(t, want, route.TotalLength, 1e-6)
	assert.Equal(t, route.Segments[len(route.Segments)-1].AggCost, route.TotalCost)

	for i, seg := range route.Segments {
		assert.Equal(t, i%2 == 1, seg.Reverse)
		assert.Equal(t, float64(i), seg.Geometry[0].Lat)
	}
}
