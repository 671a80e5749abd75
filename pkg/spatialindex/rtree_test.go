package spatialindex

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

func traverseRtreeAndTestIfRtreePropertiesCorrect(rt *Rtree, node *RtreeNode, countLeaf *int,
	expectedLeafLevel int, level int, t *testing.T) {
	if node == rt.Root && level != expectedLeafLevel {
		if len(node.Items) < 2 {
			t.Errorf("The root node must has at least two children unless it is a leaf.")
		}
	}
	if node.IsLeaf {
		height := float64(level - 1)
		logmN := math.Log(float64(rt.Size)) / math.Log(float64(rt.MinChildItems))
		assert.LessOrEqual(t, height, math.Max(math.Ceil(logmN)-1, 0), "The height of an R-tree containing N index records is at most ceil(logmN)-1")

		if level != expectedLeafLevel {
			t.Errorf("All leaves not appear on the same level")
		}

		if rt.Root != node && (len(node.Items) < rt.MinChildItems || len(node.Items) > rt.MaxChildItems) {
			t.Errorf("Every leaf node has between m and M children unless it is the root.")
		}

		maxBB := node.Items[0].GetBound()
		for _, item := range node.Items {
			*countLeaf++
			assert.Equal(t, node, item.Parent)
			maxBB = BoundingBox(maxBB, item.GetBound())
		}

		if !node.Bound.IsBBSame(maxBB) {
			t.Errorf("For each index record in a leaf node, I is the smallest rectangle that spatially contains the data object.")
		}
	} else {
		maxBB := node.Items[0].GetBound()

		if rt.Root != node && (len(node.Items) < rt.MinChildItems || len(node.Items) > rt.MaxChildItems) {
			t.Errorf("Every non-leaf node has between m and M children unless it is the root.")
		}

		for _, item := range node.Items {
			assert.Equal(t, node, item.Parent)
			maxBB = BoundingBox(maxBB, item.GetBound())
			traverseRtreeAndTestIfRtreePropertiesCorrect(rt, item, countLeaf, expectedLeafLevel, level+1, t)
		}

		if !node.Bound.IsBBSame(maxBB) {
			t.Errorf("For each entry in a non-leaf node, I is the smallest rectangle that spatially contains the rectangles in the child node")
		}
	}
}

func newTestGraph(t *testing.T, vertices []datastructure.Vertex, edges []datastructure.EdgeInput) *datastructure.Graph {
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	return g
}

func randomVertices(r *rand.Rand, n int, minLat, maxLat, minLon, maxLon float64) []datastructure.Vertex {
	vertices := make([]datastructure.Vertex, 0, n)
	for i := 0; i < n; i++ {
		lat := minLat + r.Float64()*(maxLat-minLat)
		lon := minLon + r.Float64()*(maxLon-minLon)
		vertices = append(vertices, datastructure.NewVertex(int64(i+1), lat, lon))
	}
	return vertices
}

func TestInsertLeaftree(t *testing.T) {
	itemsData := []datastructure.Vertex{}
	for i := 1; i < 100; i++ {
		itemsData = append(itemsData, datastructure.NewVertex(int64(i), float64(i)/100, float64(i)/100))
	}
	itemsData = append(itemsData,
		datastructure.NewVertex(100, 0, -0.05),
		datastructure.NewVertex(101, 0.02, -0.10),
		datastructure.NewVertex(102, 0.03, -0.15),
	)

	t.Run("Insert 102 item", func(t *testing.T) {
		g := newTestGraph(t, itemsData, nil)
		rt := BuildVertexRtree(g, geo.PlanarDegree{}, zap.NewNop())
		assert.Equal(t, 102, rt.Size)

		countLeaf := 0
		traverseRtreeAndTestIfRtreePropertiesCorrect(rt, rt.Root, &countLeaf, rt.Height, 1, t)
		assert.Equal(t, 102, countLeaf)
		assert.Equal(t, 2, rt.Height)
	})

	t.Run("Insert 5 items", func(t *testing.T) {
		rt := NewRtree(DefaultMinChildItems, DefaultMaxChildItems, geo.PlanarDegree{})
		for i := 0; i < 5; i++ {
			rt.InsertLeaf(NewVertexObject(datastructure.Index(i), itemsData[i]))
		}
		assert.Equal(t, 5, rt.Size)
		for i, item := range rt.Root.Items {
			assert.Equal(t, itemsData[i].ID, item.Leaf.ID)
		}

		countLeaf := 0
		traverseRtreeAndTestIfRtreePropertiesCorrect(rt, rt.Root, &countLeaf, 1, 1, t)
		assert.Equal(t, 5, countLeaf)
	})

	t.Run("Insert 5000 random items", func(t *testing.T) {
		r := rand.New(rand.NewSource(7))
		g := newTestGraph(t, randomVertices(r, 5000, -7.8, -7.5, 110.3, 110.9), nil)
		rt := BuildVertexRtree(g, geo.PlanarDegree{}, zap.NewNop())

		countLeaf := 0
		traverseRtreeAndTestIfRtreePropertiesCorrect(rt, rt.Root, &countLeaf, rt.Height, 1, t)
		assert.Equal(t, 5000, countLeaf)
	})
}

func TestSplit(t *testing.T) {
	rt := NewRtree(10, 25, geo.PlanarDegree{})
	for i := 1; i < 27; i++ {
		obj := NewVertexObject(datastructure.Index(i-1), datastructure.NewVertex(int64(i), float64(i), float64(i)))
		rt.Root.Items = append(rt.Root.Items, &RtreeNode{Leaf: obj, Bound: obj.GetBound()})
	}

	old, newNode := rt.SplitNode(rt.Root)

	assert.Less(t, len(newNode.Items), 25)
	assert.Less(t, len(old.Items), 25)
	assert.GreaterOrEqual(t, len(newNode.Items), 10)
	assert.GreaterOrEqual(t, len(old.Items), 10)
	assert.Equal(t, 26, len(old.Items)+len(newNode.Items))

	// identical points must still split into two non-empty groups
	rt = NewRtree(2, 4, geo.PlanarDegree{})
	for i := 0; i < 5; i++ {
		obj := NewVertexObject(datastructure.Index(i), datastructure.NewVertex(int64(i), 1, 1))
		rt.Root.Items = append(rt.Root.Items, &RtreeNode{Leaf: obj, Bound: obj.GetBound()})
	}
	old, newNode = rt.SplitNode(rt.Root)
	assert.Equal(t, 5, len(old.Items)+len(newNode.Items))
	assert.GreaterOrEqual(t, len(newNode.Items), 2)
	assert.GreaterOrEqual(t, len(old.Items), 2)
}

func TestSearch(t *testing.T) {
	itemsData := []datastructure.Vertex{}
	for i := 1; i < 100; i++ {
		itemsData = append(itemsData, datastructure.NewVertex(int64(i), float64(i), float64(i)))
	}
	g := newTestGraph(t, itemsData, nil)
	rt := BuildVertexRtree(g, geo.PlanarDegree{}, zap.NewNop())

	results := rt.Search(datastructure.NewCoordinate(0, 0), datastructure.NewCoordinate(50, 50))
	assert.Len(t, results, 50)
	for _, item := range results {
		assert.LessOrEqual(t, item.Lat, 50.0)
		assert.LessOrEqual(t, item.Lon, 50.0)
	}

	empty := NewRtree(DefaultMinChildItems, DefaultMaxChildItems, geo.PlanarDegree{})
	assert.Empty(t, empty.Search(datastructure.NewCoordinate(0, 0), datastructure.NewCoordinate(50, 50)))
}

func TestNearestMatchesBruteForce(t *testing.T) {
	metrics := []geo.Metric{geo.PlanarDegree{}, geo.GreatCircle{}}
	for _, metric := range metrics {
		t.Run(metric.Name(), func(t *testing.T) {
			r := rand.New(rand.NewSource(42))
			g := newTestGraph(t, randomVertices(r, 3000, -7.8, -7.5, 110.3, 110.9), nil)
			rt := BuildVertexRtree(g, metric, zap.NewNop())
			bf := NewBruteForce(g, metric)

			for i := 0; i < 300; i++ {
				p := datastructure.NewCoordinate(-7.9+r.Float64()*0.5, 110.2+r.Float64()*0.8)

				want, ok, err := bf.Nearest(context.Background(), p)
				require.NoError(t, err)
				require.True(t, ok)

				got, ok, err := rt.Nearest(context.Background(), p)
				require.NoError(t, err)
				require.True(t, ok)

				assert.Equal(t, want.ID, got.ID, fmt.Sprintf("query %v", p))
				assert.Equal(t, want.Distance, got.Distance)
				assert.Equal(t, want.Vertex, got.Vertex)
			}
		})
	}
}

func TestNearestTieBreak(t *testing.T) {
	vertices := []datastructure.Vertex{
		datastructure.NewVertex(5, 1, 0),
		datastructure.NewVertex(9, 0, 1),
		datastructure.NewVertex(3, -1, 0),
		datastructure.NewVertex(4, 0.2, 0.2),
		datastructure.NewVertex(2, 0.2, 0.2),
	}
	g := newTestGraph(t, vertices, nil)
	rt := BuildVertexRtree(g, geo.PlanarDegree{}, zap.NewNop())

	t.Run("equidistant vertices pick lowest id", func(t *testing.T) {
		g := newTestGraph(t, []datastructure.Vertex{
			datastructure.NewVertex(5, 1, 0),
			datastructure.NewVertex(3, -1, 0),
			datastructure.NewVertex(9, 0, 1.5),
		}, nil)
		rt := BuildVertexRtree(g, geo.PlanarDegree{}, zap.NewNop())

		got, ok, _ := rt.Nearest(context.Background(), datastructure.NewCoordinate(0, 0))
		require.True(t, ok)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, 1.0, got.Distance)

		want, _, _ := NewBruteForce(g, geo.PlanarDegree{}).Nearest(context.Background(), datastructure.NewCoordinate(0, 0))
		assert.Equal(t, want.ID, got.ID)
	})

	t.Run("duplicate coordinates pick lowest id", func(t *testing.T) {
		got, ok, _ := rt.Nearest(context.Background(), datastructure.NewCoordinate(0.2, 0.2))
		require.True(t, ok)
		assert.Equal(t, int64(2), got.ID)
		assert.Equal(t, 0.0, got.Distance)
	})

	t.Run("nearest k and radius are ordered by distance then id", func(t *testing.T) {
		nn := rt.NearestK(datastructure.NewCoordinate(0.2, 0.2), 3)
		require.Len(t, nn, 3)
		assert.Equal(t, int64(2), nn[0].ID)
		assert.Equal(t, int64(4), nn[1].ID)

		within := rt.WithinRadius(datastructure.NewCoordinate(0, 0), 1.0, 0)
		ids := make([]int64, 0, len(within))
		for _, n := range within {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, []int64{2, 4, 3, 5, 9}, ids)

		limited := rt.WithinRadius(datastructure.NewCoordinate(0, 0), 1.0, 2)
		require.Len(t, limited, 2)
		assert.Equal(t, int64(2), limited[0].ID)
		assert.Equal(t, int64(4), limited[1].ID)
		assert.Empty(t, rt.WithinRadius(datastructure.NewCoordinate(0, 0), 0.1, 0))

		assert.Empty(t, rt.NearestK(datastructure.NewCoordinate(0, 0), 0))
		assert.Empty(t, rt.NearestK(datastructure.NewCoordinate(0, 0), -1))
		assert.Len(t, rt.NearestK(datastructure.NewCoordinate(0, 0), 10), 5)
	})
}

func TestNearestEmpty(t *testing.T) {
	g := newTestGraph(t, nil, nil)
	rt := BuildVertexRtree(g, geo.GreatCircle{}, zap.NewNop())

	_, ok, err := rt.Nearest(context.Background(), datastructure.NewCoordinate(0, 0))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = NewBruteForce(g, geo.GreatCircle{}).Nearest(context.Background(), datastructure.NewCoordinate(0, 0))
	assert.False(t, ok)
}

func TestNearestKNonPositive(t *testing.T) {
	g := newTestGraph(t, []datastructure.Vertex{datastructure.NewVertex(1, 0, 0)}, nil)
	rt := BuildVertexRtree(g, geo.PlanarDegree{}, zap.NewNop())

	for _, k := range []int{0, -1, -100} {
		assert.NotPanics(t, func() {
			assert.Empty(t, rt.NearestK(datastructure.NewCoordinate(0, 0), k))
		})
	}
	assert.Len(t, rt.NearestK(datastructure.NewCoordinate(0, 0), 1), 1)
}
