package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
test graph (ids):

	10 ---e1(cost 5, rev 7)---> 20 ---e2(cost 3, one way)---> 30
	                            |
	                            e3 (cost 0, rev 4): only 40 -> 20
	                            |
	                            40

	50 isolated
*/
func buildTestGraph(t *testing.T) *Graph {
	vertices := []Vertex{
		NewVertex(50, 1, 1),
		NewVertex(30, 0, 0.02),
		NewVertex(10, 0, 0),
		NewVertex(40, -0.01, 0.01),
		NewVertex(20, 0, 0.01),
	}
	edges := []EdgeInput{
		{ID: 3, Source: 20, Target: 40, Cost: 0, ReverseCost: 4, HasReverse: true, Length: 40},
		{ID: 1, Source: 10, Target: 20, Cost: 5, ReverseCost: 7, HasReverse: true, Length: 100,
			Geometry: []Coordinate{NewCoordinate(0, 0), NewCoordinate(0.0001, 0.005), NewCoordinate(0, 0.01)}},
		{ID: 2, Source: 20, Target: 30, Cost: 3, Length: 60},
	}
	g, err := NewGraph(vertices, edges)
	require.NoError(t, err)
	return g
}

func TestNewGraph(t *testing.T) {
	g := buildTestGraph(t)

	assert.Equal(t, 5, g.NumVertices())
	assert.Equal(t, 3, g.NumEdges())
	// e1 both ways, e2 forward, e3 reverse only
	assert.Equal(t, 4, g.NumArcs())

	for i := 1; i < g.NumVertices(); i++ {
		assert.Less(t, g.Vertex(Index(i-1)).ID, g.Vertex(Index(i)).ID)
	}

	v20, ok := g.VertexIndex(20)
	require.True(t, ok)
	assert.Equal(t, Index(1), v20)

	_, ok = g.VertexIndex(25)
	assert.False(t, ok)

	arcs := g.OutArcs(v20)
	require.Len(t, arcs, 2)
	// ordered by edge index: e1 reverse (20 -> 10), then e2 forward (20 -> 30)
	assert.Equal(t, int64(1), g.Edge(arcs[0].Edge).ID)
	assert.True(t, arcs[0].Reverse)
	assert.Equal(t, 7.0, arcs[0].Cost)
	assert.Equal(t, int64(10), g.Vertex(arcs[0].Head).ID)
	assert.Equal(t, int64(2), g.Edge(arcs[1].Edge).ID)
	assert.False(t, arcs[1].Reverse)

	v40, _ := g.VertexIndex(40)
	arcs = g.OutArcs(v40)
	require.Len(t, arcs, 1)
	assert.Equal(t, v20, arcs[0].Head)
	assert.True(t, arcs[0].Reverse)

	v50, _ := g.VertexIndex(50)
	assert.Empty(t, g.OutArcs(v50))

	e1, ok := g.EdgeIndex(1)
	require.True(t, ok)
	assert.Len(t, g.EdgeGeometry(e1), 3)

	// empty geometry falls back to the straight segment source -> target
	e2, _ := g.EdgeIndex(2)
	assert.Equal(t, []Coordinate{NewCoordinate(0, 0.01), NewCoordinate(0, 0.02)}, g.EdgeGeometry(e2))

	_, ok = g.EdgeIndex(99)
	assert.False(t, ok)

	assert.NoError(t, g.Validate())
}

func TestNewGraphErrors(t *testing.T) {
	testCases := []struct {
		name     string
		vertices []Vertex
		edges    []EdgeInput
		wantErr  error
	}{
		{
			name:     "duplicate vertex",
			vertices: []Vertex{NewVertex(1, 0, 0), NewVertex(1, 1, 1)},
			wantErr:  ErrDuplicateVertex,
		},
		{
			name:     "duplicate edge",
			vertices: []Vertex{NewVertex(1, 0, 0), NewVertex(2, 1, 1)},
			edges: []EdgeInput{
				{ID: 7, Source: 1, Target: 2, Cost: 1},
				{ID: 7, Source: 2, Target: 1, Cost: 1},
			},
			wantErr: ErrDuplicateEdge,
		},
		{
			name:     "dangling target",
			vertices: []Vertex{NewVertex(1, 0, 0), NewVertex(2, 1, 1)},
			edges:    []EdgeInput{{ID: 7, Source: 1, Target: 3, Cost: 1}},
			wantErr:  ErrDanglingEdge,
		},
		{
			name:     "dangling source",
			vertices: []Vertex{NewVertex(1, 0, 0)},
			edges:    []EdgeInput{{ID: 7, Source: 9, Target: 1, Cost: 1}},
			wantErr:  ErrDanglingEdge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGraph(tc.vertices, tc.edges)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGraphValidate(t *testing.T) {
	vertices := []Vertex{NewVertex(1, 0, 0), NewVertex(2, 0, 1)}

	g, err := NewGraph(vertices, []EdgeInput{
		{ID: 4, Source: 1, Target: 2, Cost: 2, ReverseCost: -1, HasReverse: true},
	})
	require.NoError(t, err)

	err = g.Validate()
	var costErr *InvalidEdgeCostError
	require.ErrorAs(t, err, &costErr)
	assert.Equal(t, int64(4), costErr.EdgeID)
	assert.True(t, costErr.Reverse)
	assert.Equal(t, -1.0, costErr.Cost)

	// negative arcs are kept so a search can still detect them
	v2, _ := g.VertexIndex(2)
	require.Len(t, g.OutArcs(v2), 1)
	assert.Equal(t, -1.0, g.OutArcs(v2)[0].Cost)

	// a negative reverse cost without HasReverse is ignored
	g, err = NewGraph(vertices, []EdgeInput{{ID: 4, Source: 1, Target: 2, Cost: 2, ReverseCost: -1}})
	require.NoError(t, err)
	assert.NoError(t, g.Validate())
}

func TestGraphCodec(t *testing.T) {
	g := buildTestGraph(t)

	data, err := EncodeGraph(g)
	require.NoError(t, err)

	decoded, err := DecodeGraph(data)
	require.NoError(t, err)

	assert.Equal(t, g.Vertices(), decoded.Vertices())
	assert.Equal(t, g.NumArcs(), decoded.NumArcs())
	for i := 0; i < g.NumEdges(); i++ {
		assert.Equal(t, g.Edge(Index(i)), decoded.Edge(Index(i)))
		assert.Equal(t, g.EdgeGeometry(Index(i)), decoded.EdgeGeometry(Index(i)))
	}

	lo, hi := decoded.BoundingBox()
	assert.Equal(t, NewCoordinate(-0.01, 0), lo)
	assert.Equal(t, NewCoordinate(1, 1), hi)
}

func TestRenderPath(t *testing.T) {
	path := []Coordinate{NewCoordinate(38.5, -120.2), NewCoordinate(40.7, -120.95), NewCoordinate(43.252, -126.453)}
	encoded := RenderPath(path)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := DecodePath(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-5)
	}

	assert.True(t, NewCoordinate(-7.55, 110.77).IsValid())
	assert.False(t, NewCoordinate(91, 0).IsValid())
	assert.False(t, NewCoordinate(0, -180.5).IsValid())
}
