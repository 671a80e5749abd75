package kv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/lintang-b-s/routingapi/pkg/concurrent"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/lintang-b-s/routingapi/pkg/spatialindex"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"
)

const (
	DefaultH3Resolution = 9
	DefaultMaxRings     = 64

	h3KeyPrefix = "h3:"
	h3MetaKey   = "h3:meta"
	batchSize   = 1000
)

func cellKey(c h3.Cell) []byte {
	return []byte(h3KeyPrefix + c.String())
}

type cellBucket struct {
	cell    h3.Cell
	entries []h3Entry
}

type encodedBucket struct {
	entry Entry
	err   error
}

// BuildH3IndexedVertices buckets every vertex of g by its h3 cell and writes the buckets to store.
func BuildH3IndexedVertices(ctx context.Context, store Store, g *datastructure.Graph, resolution int, log *zap.Logger) error {
	log.Info("creating & saving h3 indexed vertices to key-value db...", zap.Int("resolution", resolution))

	buckets := make(map[h3.Cell][]h3Entry)
	for i, v := range g.Vertices() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cell := h3.LatLngToCell(h3.NewLatLng(v.Coord.Lat, v.Coord.Lon), resolution)
		buckets[cell] = append(buckets[cell], h3Entry{
			Index: uint32(i),
			ID:    v.ID,
			Lat:   v.Coord.Lat,
			Lon:   v.Coord.Lon,
		})
	}

	workers := concurrent.NewWorkerPool[cellBucket, encodedBucket](runtime.NumCPU(), len(buckets))
	for cell, entries := range buckets {
		workers.AddJob(cellBucket{cell: cell, entries: entries})
	}
	workers.Close()
	workers.Start(func(b cellBucket) encodedBucket {
		val, err := encodeBucket(b.entries)
		return encodedBucket{entry: Entry{Key: cellKey(b.cell), Value: val}, err: err}
	})
	workers.Wait()

	batch := make([]Entry, 0, batchSize)
	for res := range workers.CollectResults() {
		if res.err != nil {
			return fmt.Errorf("kv: encode h3 bucket: %w", res.err)
		}
		batch = append(batch, res.entry)
		if len(batch) == batchSize {
			if err := store.SetBatch(ctx, batch); err != nil {
				return err
			}
			batch = make([]Entry, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		if err := store.SetBatch(ctx, batch); err != nil {
			return err
		}
	}

	meta, err := encodeMeta(h3Meta{Resolution: resolution, NumVertices: g.NumVertices(), NumCells: len(buckets)})
	if err != nil {
		return err
	}
	if err := store.Set([]byte(h3MetaKey), meta); err != nil {
		return err
	}

	log.Info("creating & saving h3 indexed vertices done", zap.Int("cells", len(buckets)))
	return nil
}

// H3Index answers nearest vertex queries from the h3 buckets in the KV store.
// rings around the query cell are read until every unread vertex is provably farther than the
// best candidate. past maxRings the query falls back to the exhaustive index.
type H3Index struct {
	store      Store
	metric     geo.Metric
	resolution int
	numVertex  int
	maxRings   int
	fallback   snapFallback
	log        *zap.Logger
}

type snapFallback interface {
	Nearest(ctx context.Context, p datastructure.Coordinate) (spatialindex.Neighbor, bool, error)
}

func NewH3Index(store Store, metric geo.Metric, fallback snapFallback, log *zap.Logger) (*H3Index, error) {
	raw, err := store.Get([]byte(h3MetaKey))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("kv: h3 index was not built: %w", err)
	}
	if err != nil {
		return nil, err
	}
	meta, err := decodeMeta(raw)
	if err != nil {
		return nil, err
	}

	return &H3Index{
		store:      store,
		metric:     metric,
		resolution: meta.Resolution,
		numVertex:  meta.NumVertices,
		maxRings:   DefaultMaxRings,
		fallback:   fallback,
		log:        log,
	}, nil
}

func (hi *H3Index) Metric() geo.Metric {
	return hi.metric
}

func (hi *H3Index) SetMaxRings(k int) {
	hi.maxRings = k
}

// coveredMeters is a lower bound of the distance from any point inside origin to any point
// in a cell outside the k-ring disk of origin.
// ring k+1 centers are at least 1.5*(k+1)*edge from the origin center, both points are within one
// edge of their cell center, halved for cell shape distortion.
func coveredMeters(origin h3.Cell, k int) float64 {
	areaM2 := h3.CellAreaKm2(origin) * 1e6
	edge := math.Sqrt(2 * areaM2 / (3 * math.Sqrt(3)))
	return math.Max(0, 0.5*(1.5*float64(k+1)*edge-2*edge))
}

func (hi *H3Index) readCell(c h3.Cell) ([]h3Entry, error) {
	val, err := hi.store.Get(cellKey(c))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeBucket(val)
}

func better(a spatialindex.Neighbor, b spatialindex.Neighbor, found bool) bool {
	if !found {
		return true
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

func (hi *H3Index) Nearest(ctx context.Context, p datastructure.Coordinate) (spatialindex.Neighbor, bool, error) {
	if hi.numVertex == 0 {
		return spatialindex.Neighbor{}, false, nil
	}

	origin := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), hi.resolution)
	visited := make(map[h3.Cell]struct{})

	var best spatialindex.Neighbor
	found := false

	for k := 0; k <= hi.maxRings; k++ {
		if err := ctx.Err(); err != nil {
			return spatialindex.Neighbor{}, false, err
		}

		cells := h3.GridDisk(origin, k)
		sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
		for _, c := range cells {
			if _, ok := visited[c]; ok {
				continue
			}
			visited[c] = struct{}{}

			entries, err := hi.readCell(c)
			if err != nil {
				return spatialindex.Neighbor{}, false, err
			}
			for _, e := range entries {
				coord := datastructure.NewCoordinate(e.Lat, e.Lon)
				cand := spatialindex.Neighbor{
					Vertex:   datastructure.Index(e.Index),
					ID:       e.ID,
					Coord:    coord,
					Distance: hi.metric.Distance(p, coord),
				}
				if better(cand, best, found) {
					best = cand
					found = true
				}
			}
		}

		if found && hi.metric.MaxMeters(best.Distance) < coveredMeters(origin, k) {
			return best, true, nil
		}
	}

	if hi.fallback == nil {
		return best, found, nil
	}
	hi.log.Debug("h3 ring search exhausted, using fallback index",
		zap.Float64("lat", p.Lat), zap.Float64("lon", p.Lon), zap.Int("rings", hi.maxRings))
	return hi.fallback.Nearest(ctx, p)
}
