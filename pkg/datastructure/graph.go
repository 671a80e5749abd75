package datastructure

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lintang-b-s/routingapi/pkg/util"
)

// Index is the compact position of a vertex or edge inside the graph arenas.
type Index uint32

const InvalidIndex Index = math.MaxUint32

var (
	ErrDuplicateVertex = errors.New("duplicate vertex id")
	ErrDuplicateEdge   = errors.New("duplicate edge id")
	ErrDanglingEdge    = errors.New("edge references unknown vertex")
	ErrVertexNotFound  = errors.New("vertex not found")
)

// InvalidEdgeCostError reports an edge whose cost in the traversed direction is negative.
type InvalidEdgeCostError struct {
	EdgeID  int64
	Cost    float64
	Reverse bool
}

func (e *InvalidEdgeCostError) Error() string {
	dir := "forward"
	if e.Reverse {
		dir = "reverse"
	}
	return fmt.Sprintf("invalid %s cost %v on edge %d", dir, e.Cost, e.EdgeID)
}

type Vertex struct {
	ID    int64
	Coord Coordinate
}

func NewVertex(id int64, lat, lon float64) Vertex {
	return Vertex{ID: id, Coord: NewCoordinate(lat, lon)}
}

// EdgeInput is the loader-facing shape of a road segment.
// Geometry is ordered from Source to Target.
type EdgeInput struct {
	ID          int64
	Source      int64
	Target      int64
	Cost        float64
	ReverseCost float64
	HasReverse  bool
	Length      float64
	Geometry    []Coordinate
}

type Edge struct {
	ID          int64
	Source      Index
	Target      Index
	Cost        float64
	ReverseCost float64
	HasReverse  bool
	Length      float64 // meter

	geomStart uint32
	geomEnd   uint32
}

// Arc is one traversable direction of an edge, stored in the CSR adjacency of its tail vertex.
// Cost is the raw edge cost for that direction. arcs are only built for non-zero costs,
// so a non-positive Cost here means corrupt data.
type Arc struct {
	Head    Index
	Edge    Index
	Reverse bool
	Cost    float64
}

// Graph is an immutable directed road graph stored in arenas.
// vertices are sorted by external id, so comparing two vertex indices gives the same
// order as comparing their ids.
type Graph struct {
	vertices []Vertex
	edges    []Edge
	geometry []Coordinate
	firstOut []uint32
	arcs     []Arc
}

func cmpVertexID(a, b Vertex) int {
	if a.ID < b.ID {
		return -1
	} else if a.ID > b.ID {
		return 1
	}
	return 0
}

// NewGraph builds the arena graph. Edges with an empty geometry get a straight
// segment between their endpoints.
func NewGraph(vertices []Vertex, edges []EdgeInput) (*Graph, error) {
	vs := make([]Vertex, len(vertices))
	copy(vs, vertices)
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID < vs[j].ID })
	for i := 1; i < len(vs); i++ {
		if vs[i].ID == vs[i-1].ID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVertex, vs[i].ID)
		}
	}

	in := make([]EdgeInput, len(edges))
	copy(in, edges)
	sort.Slice(in, func(i, j int) bool { return in[i].ID < in[j].ID })

	g := &Graph{
		vertices: vs,
		edges:    make([]Edge, 0, len(in)),
		firstOut: make([]uint32, len(vs)+1),
	}

	geomSize := 0
	for _, e := range in {
		geomSize += max(len(e.Geometry), 2)
	}
	g.geometry = make([]Coordinate, 0, geomSize)

	for i, e := range in {
		if i > 0 && e.ID == in[i-1].ID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateEdge, e.ID)
		}
		src, ok := g.VertexIndex(e.Source)
		if !ok {
			return nil, fmt.Errorf("%w: edge %d source %d", ErrDanglingEdge, e.ID, e.Source)
		}
		tgt, ok := g.VertexIndex(e.Target)
		if !ok {
			return nil, fmt.Errorf("%w: edge %d target %d", ErrDanglingEdge, e.ID, e.Target)
		}

		start := uint32(len(g.geometry))
		if len(e.Geometry) < 2 {
			g.geometry = append(g.geometry, vs[src].Coord, vs[tgt].Coord)
		} else {
			g.geometry = append(g.geometry, e.Geometry...)
		}

		g.edges = append(g.edges, Edge{
			ID:          e.ID,
			Source:      src,
			Target:      tgt,
			Cost:        e.Cost,
			ReverseCost: e.ReverseCost,
			HasReverse:  e.HasReverse,
			Length:      e.Length,
			geomStart:   start,
			geomEnd:     uint32(len(g.geometry)),
		})
	}

	g.buildAdjacency()

	return g, nil
}

func forwardArc(e Edge) bool {
	return e.Cost != 0
}

func reverseArc(e Edge) bool {
	return e.HasReverse && e.ReverseCost != 0
}

// buildAdjacency fills the CSR arrays. arcs of a vertex are ordered by edge index,
// forward before reverse.
func (g *Graph) buildAdjacency() {
	degree := make([]uint32, len(g.vertices))
	for _, e := range g.edges {
		if forwardArc(e) {
			degree[e.Source]++
		}
		if reverseArc(e) {
			degree[e.Target]++
		}
	}

	for v := 0; v < len(g.vertices); v++ {
		g.firstOut[v+1] = g.firstOut[v] + degree[v]
	}

	g.arcs = make([]Arc, g.firstOut[len(g.vertices)])
	next := make([]uint32, len(g.vertices))
	copy(next, g.firstOut[:len(g.vertices)])

	for i, e := range g.edges {
		if forwardArc(e) {
			g.arcs[next[e.Source]] = Arc{Head: e.Target, Edge: Index(i), Cost: e.Cost}
			next[e.Source]++
		}
		if reverseArc(e) {
			g.arcs[next[e.Target]] = Arc{Head: e.Source, Edge: Index(i), Reverse: true, Cost: e.ReverseCost}
			next[e.Target]++
		}
	}
}

func (g *Graph) NumVertices() int {
	return len(g.vertices)
}

func (g *Graph) NumEdges() int {
	return len(g.edges)
}

func (g *Graph) NumArcs() int {
	return len(g.arcs)
}

func (g *Graph) Vertex(v Index) Vertex {
	return g.vertices[v]
}

func (g *Graph) Edge(e Index) Edge {
	return g.edges[e]
}

// Vertices returns the vertex arena. callers must not modify it.
func (g *Graph) Vertices() []Vertex {
	return g.vertices
}

func (g *Graph) VertexIndex(id int64) (Index, bool) {
	pos, found := util.BinarySearch(g.vertices, Vertex{ID: id}, cmpVertexID)
	if !found {
		return InvalidIndex, false
	}
	return Index(pos), true
}

func (g *Graph) EdgeIndex(id int64) (Index, bool) {
	pos := sort.Search(len(g.edges), func(i int) bool { return g.edges[i].ID >= id })
	if pos == len(g.edges) || g.edges[pos].ID != id {
		return InvalidIndex, false
	}
	return Index(pos), true
}

// OutArcs returns the traversable arcs leaving v. callers must not modify the slice.
func (g *Graph) OutArcs(v Index) []Arc {
	return g.arcs[g.firstOut[v]:g.firstOut[v+1]]
}

// EdgeGeometry returns the stored geometry of e, ordered source to target.
// the slice aliases graph memory.
func (g *Graph) EdgeGeometry(e Index) []Coordinate {
	edge := g.edges[e]
	return g.geometry[edge.geomStart:edge.geomEnd:edge.geomEnd]
}

// Validate returns an *InvalidEdgeCostError for the first edge (by id) carrying a negative cost.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if e.Cost < 0 || math.IsNaN(e.Cost) {
			return &InvalidEdgeCostError{EdgeID: e.ID, Cost: e.Cost}
		}
		if e.HasReverse && (e.ReverseCost < 0 || math.IsNaN(e.ReverseCost)) {
			return &InvalidEdgeCostError{EdgeID: e.ID, Cost: e.ReverseCost, Reverse: true}
		}
	}
	return nil
}

// Inputs converts the graph back to loader form, used for snapshots.
func (g *Graph) Inputs() ([]Vertex, []EdgeInput) {
	vs := make([]Vertex, len(g.vertices))
	copy(vs, g.vertices)

	es := make([]EdgeInput, 0, len(g.edges))
	for i, e := range g.edges {
		geom := make([]Coordinate, e.geomEnd-e.geomStart)
		copy(geom, g.EdgeGeometry(Index(i)))
		es = append(es, EdgeInput{
			ID:          e.ID,
			Source:      g.vertices[e.Source].ID,
			Target:      g.vertices[e.Target].ID,
			Cost:        e.Cost,
			ReverseCost: e.ReverseCost,
			HasReverse:  e.HasReverse,
			Length:      e.Length,
			Geometry:    geom,
		})
	}
	return vs, es
}

// BoundingBox returns the min and max corner of all vertex coordinates.
func (g *Graph) BoundingBox() (Coordinate, Coordinate) {
	if len(g.vertices) == 0 {
		return Coordinate{}, Coordinate{}
	}
	lo := g.vertices[0].Coord
	hi := g.vertices[0].Coord
	for _, v := range g.vertices[1:] {
		lo.Lat = math.Min(lo.Lat, v.Coord.Lat)
		lo.Lon = math.Min(lo.Lon, v.Coord.Lon)
		hi.Lat = math.Max(hi.Lat, v.Coord.Lat)
		hi.Lon = math.Max(hi.Lon, v.Coord.Lon)
	}
	return lo, hi
}
