package postgis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

// queryTimeout is applied to every bulk load query.
const queryTimeout = 5 * time.Minute

const (
	DefaultVerticesTable = "topology.vertices"
	DefaultWaysTable     = "topology.ways"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgis: parse database url: %w", err)
	}
	cfg.MaxConns = 20

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgis: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgis: verify connection: %w", err)
	}
	return pool, nil
}

// Loader reads the road graph from a pgRouting topology: a vertices table (id, geom) and a
// ways table (id, source, target, cost, reverse_cost, length_m, geom).
type Loader struct {
	pool          *pgxpool.Pool
	verticesTable string
	waysTable     string
	log           *zap.Logger
}

func NewLoader(pool *pgxpool.Pool, verticesTable, waysTable string, log *zap.Logger) *Loader {
	return &Loader{
		pool:          pool,
		verticesTable: quoteTable(verticesTable),
		waysTable:     quoteTable(waysTable),
		log:           log,
	}
}

// quoteTable turns schema.table into a quoted identifier.
func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func (l *Loader) Load(ctx context.Context) ([]datastructure.Vertex, []datastructure.EdgeInput, error) {
	l.log.Info("loading vertices...", zap.String("table", l.verticesTable))
	vertices, err := l.loadVertices(ctx)
	if err != nil {
		return nil, nil, err
	}

	l.log.Info("loading ways...", zap.String("table", l.waysTable))
	edges, err := l.loadEdges(ctx)
	if err != nil {
		return nil, nil, err
	}

	l.log.Info("graph loaded from postgis", zap.Int("vertices", len(vertices)), zap.Int("edges", len(edges)))
	return vertices, edges, nil
}

func (l *Loader) loadVertices(ctx context.Context) ([]datastructure.Vertex, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id, ST_Y(geom), ST_X(geom) FROM %s", l.verticesTable)
	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgis: loadVertices: %w", err)
	}

	vertices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (datastructure.Vertex, error) {
		var (
			id       int64
			lat, lon float64
		)
		if err := row.Scan(&id, &lat, &lon); err != nil {
			return datastructure.Vertex{}, err
		}
		return datastructure.NewVertex(id, lat, lon), nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgis: loadVertices: %w", err)
	}
	return vertices, nil
}

type wayRow struct {
	ID          int64
	Source      int64
	Target      int64
	Cost        float64
	ReverseCost *float64
	LengthM     *float64
	Geom        []byte
}

func (l *Loader) loadEdges(ctx context.Context) ([]datastructure.EdgeInput, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, source, target, cost, reverse_cost, length_m, ST_AsBinary(geom) FROM %s "+
			"WHERE source IS NOT NULL AND target IS NOT NULL", l.waysTable)
	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgis: loadEdges: %w", err)
	}

	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (datastructure.EdgeInput, error) {
		var w wayRow
		if err := row.Scan(&w.ID, &w.Source, &w.Target, &w.Cost, &w.ReverseCost, &w.LengthM, &w.Geom); err != nil {
			return datastructure.EdgeInput{}, err
		}
		return wayToEdge(w)
	})
	if err != nil {
		return nil, fmt.Errorf("postgis: loadEdges: %w", err)
	}
	return edges, nil
}

// wayToEdge converts one ways row. a NULL or negative reverse_cost is the one-way marker
// written by osm2pgrouting and means no reverse traversal. a NULL length is computed from the geometry.
func wayToEdge(w wayRow) (datastructure.EdgeInput, error) {
	geometry, err := parseGeometry(w.Geom)
	if err != nil {
		return datastructure.EdgeInput{}, fmt.Errorf("way %d: %w", w.ID, err)
	}

	e := datastructure.EdgeInput{
		ID:       w.ID,
		Source:   w.Source,
		Target:   w.Target,
		Cost:     w.Cost,
		Geometry: geometry,
	}
	if w.ReverseCost != nil && *w.ReverseCost >= 0 {
		e.ReverseCost = *w.ReverseCost
		e.HasReverse = true
	}
	if w.LengthM != nil {
		e.Length = *w.LengthM
	} else {
		e.Length = geo.PolylineLength(geometry)
	}
	return e, nil
}

// parseGeometry decodes a WKB LineString (or a single part MultiLineString) into coordinates.
func parseGeometry(b []byte) ([]datastructure.Coordinate, error) {
	if len(b) == 0 {
		return nil, nil
	}

	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}

	var ls orb.LineString
	switch geom := g.(type) {
	case orb.LineString:
		ls = geom
	case orb.MultiLineString:
		for _, part := range geom {
			if len(ls) > 0 && len(part) > 0 && ls[len(ls)-1] == part[0] {
				part = part[1:]
			}
			ls = append(ls, part...)
		}
	default:
		return nil, fmt.Errorf("parse geometry: unsupported type %s", g.GeoJSONType())
	}

	coords := make([]datastructure.Coordinate, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, datastructure.NewCoordinate(p.Lat(), p.Lon()))
	}
	return coords, nil
}
