package storage

import (
	"context"
	"fmt"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/kv"
	"github.com/lintang-b-s/routingapi/pkg/storage/geojson"
	"github.com/lintang-b-s/routingapi/pkg/storage/postgis"
	"go.uber.org/zap"
)

const (
	SourcePostGIS  = "postgis"
	SourceGeoJSON  = "geojson"
	SourceSnapshot = "snapshot"
)

type Source struct {
	Kind string

	// geojson
	File string

	// postgis
	DatabaseURL   string
	VerticesTable string
	WaysTable     string

	// snapshot
	Store kv.Store
}

// LoadGraph reads vertices and edges from the configured source and builds the graph.
func LoadGraph(ctx context.Context, src Source, log *zap.Logger) (*datastructure.Graph, error) {
	var (
		vertices []datastructure.Vertex
		edges    []datastructure.EdgeInput
		err      error
	)

	switch src.Kind {
	case SourceSnapshot:
		if src.Store == nil {
			return nil, fmt.Errorf("storage: snapshot source needs a kv store")
		}
		log.Info("reading graph snapshot from kv store...")
		return kv.LoadGraph(src.Store)
	case SourceGeoJSON:
		log.Info("reading geojson graph...", zap.String("file", src.File))
		vertices, edges, err = geojson.LoadFile(src.File)
	case SourcePostGIS:
		pool, perr := postgis.NewPool(ctx, src.DatabaseURL)
		if perr != nil {
			return nil, perr
		}
		defer pool.Close()
		vertices, edges, err = postgis.NewLoader(pool, src.VerticesTable, src.WaysTable, log).Load(ctx)
	default:
		return nil, fmt.Errorf("storage: unknown graph source %q", src.Kind)
	}
	if err != nil {
		return nil, err
	}

	return datastructure.NewGraph(vertices, edges)
}
