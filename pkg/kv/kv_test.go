package kv

import (
	"context"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

func newStores(t *testing.T) map[string]Store {
	bs, err := OpenBadger("", true)
	require.NoError(t, err)
	ps, err := OpenPebble("kv", vfs.NewMem())
	require.NoError(t, err)

	t.Cleanup(func() {
		bs.Close()
		ps.Close()
	})
	return map[string]Store{BackendBadger: bs, BackendPebble: ps}
}

func randomGraph(t *testing.T, r *rand.Rand, n int) *datastructure.Graph {
	vertices := make([]datastructure.Vertex, 0, n)
	for i := 0; i < n; i++ {
		vertices = append(vertices, datastructure.NewVertex(int64(i*2+1), -7.8+r.Float64()*0.3, 110.3+r.Float64()*0.6))
	}
	edges := make([]datastructure.EdgeInput, 0, n)
	for i := 1; i < n; i++ {
		edges = append(edges, datastructure.EdgeInput{
			ID: int64(i), Source: vertices[i-1].ID, Target: vertices[i].ID,
			Cost: 1 + r.Float64()*10, ReverseCost: 2, HasReverse: i%3 == 0, Length: r.Float64() * 100,
		})
	}
	g, err := datastructure.NewGraph(vertices, edges)
	require.NoError(t, err)
	return g
}

func TestStoreGetSet(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get([]byte("missing"))
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, store.Set([]byte("a"), []byte("1")))
			require.NoError(t, store.SetBatch(context.Background(), []Entry{
				{Key: []byte("b"), Value: []byte("2")},
				{Key: []byte("c"), Value: []byte("3")},
			}))

			for k, v := range map[string]string{"a": "1", "b": "2", "c": "3"} {
				got, err := store.Get([]byte(k))
				require.NoError(t, err)
				assert.Equal(t, v, string(got))
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err = store.SetBatch(ctx, []Entry{{Key: []byte("d"), Value: []byte("4")}})
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestGraphSnapshot(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	g := randomGraph(t, r, 200)

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := LoadGraph(store)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, SaveGraph(store, g))
			loaded, err := LoadGraph(store)
			require.NoError(t, err)

			assert.Equal(t, g.NumVertices(), loaded.NumVertices())
			assert.Equal(t, g.NumEdges(), loaded.NumEdges())
			assert.Equal(t, g.NumArcs(), loaded.NumArcs())

			wantV, wantE := g.Inputs()
			gotV, gotE := loaded.Inputs()
			assert.Equal(t, wantV, gotV)
			assert.Equal(t, wantE, gotE)
		})
	}
}

func TestH3IndexMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	g := randomGraph(t, r, 1500)

	for name, store := range newStores(t) {
		for _, metric := range []geo.Metric{geo.PlanarDegree{}, geo.GreatCircle{}} {
			t.Run(name+"/"+metric.Name(), func(t *testing.T) {
				require.NoError(t, BuildH3IndexedVertices(context.Background(), store, g, DefaultH3Resolution, zap.NewNop()))

				bf := spatialindex.NewBruteForce(g, metric)
				hi, err := NewH3Index(store, metric, bf, zap.NewNop())
				require.NoError(t, err)

				for i := 0; i < 200; i++ {
					p := datastructure.NewCoordinate(-7.8+r.Float64()*0.3, 110.3+r.Float64()*0.6)

					want, ok, err := bf.Nearest(context.Background(), p)
					require.NoError(t, err)
					require.True(t, ok)

					got, ok, err := hi.Nearest(context.Background(), p)
					require.NoError(t, err)
					require.True(t, ok)

					assert.Equal(t, want.ID, got.ID)
					assert.Equal(t, want.Vertex, got.Vertex)
					assert.Equal(t, want.Distance, got.Distance)
				}
			})
		}
	}
}

func TestH3IndexFallback(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	g := randomGraph(t, r, 100)

	store, err := OpenBadger("", true)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, BuildH3IndexedVertices(context.Background(), store, g, DefaultH3Resolution, zap.NewNop()))

	metric := geo.GreatCircle{}
	bf := spatialindex.NewBruteForce(g, metric)
	hi, err := NewH3Index(store, metric, bf, zap.NewNop())
	require.NoError(t, err)
	hi.SetMaxRings(2)

	// far outside the indexed area, rings never reach a vertex
	p := datastructure.NewCoordinate(-6.2, 106.8)
	want, _, _ := bf.Nearest(context.Background(), p)
	got, ok, err := hi.Nearest(context.Background(), p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.ID, got.ID)
	assert.Greater(t, got.Distance, 11000.0)
}

func TestH3IndexEmptyAndMissing(t *testing.T) {
	store, err := OpenBadger("", true)
	require.NoError(t, err)
	defer store.Close()

	_, err = NewH3Index(store, geo.PlanarDegree{}, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrKeyNotFound)

	g, err := datastructure.NewGraph(nil, nil)
	require.NoError(t, err)
	require.NoError(t, BuildH3IndexedVertices(context.Background(), store, g, DefaultH3Resolution, zap.NewNop()))

	hi, err := NewH3Index(store, geo.PlanarDegree{}, nil, zap.NewNop())
	require.NoError(t, err)
	_, ok, err := hi.Nearest(context.Background(), datastructure.NewCoordinate(0, 0))
	assert.NoError(t, err)
	assert.False(t, ok)
}
