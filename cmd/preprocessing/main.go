package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/lintang-b-s/routingapi/pkg/config"
	"github.com/lintang-b-s/routingapi/pkg/kv"
	"github.com/lintang-b-s/routingapi/pkg/logger"
	"github.com/lintang-b-s/routingapi/pkg/storage"
	"go.uber.org/zap"
)

var (
	graphFile    = flag.String("f", "", "geojson road network file, overrides GRAPH_FILE")
	h3Resolution = flag.Int("h3res", kv.DefaultH3Resolution, "h3 resolution of the vertex buckets")
	skipH3       = flag.Bool("skiph3", false, "only write the graph snapshot")
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to file")
)

// preprocessing reads the road graph from postgis or geojson and writes the graph snapshot
// and h3 vertex buckets into the kv store read by the engine.
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *graphFile != "" {
		cfg.GraphSource = config.SourceGeoJSON
		cfg.GraphFile = *graphFile
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.GraphSource == config.SourceSnapshot {
		log.Fatal("preprocessing needs GRAPH_SOURCE postgis or geojson")
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	if *cpuprofile != "" {
		// ./bin/routingapi-preprocessing -cpuprofile=preprocessingcpu.prof
		f, err := os.Create(*cpuprofile)
		if err != nil {
			lg.Fatal("create cpu profile", zap.Error(err))
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := storage.LoadGraph(ctx, storage.Source{
		Kind:          cfg.GraphSource,
		File:          cfg.GraphFile,
		DatabaseURL:   cfg.DatabaseURL,
		VerticesTable: cfg.VerticesTable,
		WaysTable:     cfg.WaysTable,
	}, lg)
	if err != nil {
		lg.Fatal("load graph", zap.String("source", cfg.GraphSource), zap.Error(err))
	}
	if err := g.Validate(); err != nil {
		lg.Fatal("graph validation", zap.Error(err))
	}

	store, err := kv.Open(cfg.KVBackend, cfg.KVDir)
	if err != nil {
		lg.Fatal("open kv store", zap.String("backend", cfg.KVBackend), zap.Error(err))
	}
	defer store.Close()

	lg.Info("saving graph snapshot...", zap.Int("vertices", g.NumVertices()), zap.Int("edges", g.NumEdges()))
	if err := kv.SaveGraph(store, g); err != nil {
		lg.Fatal("save graph snapshot", zap.Error(err))
	}

	if !*skipH3 {
		if err := kv.BuildH3IndexedVertices(ctx, store, g, *h3Resolution, lg); err != nil {
			lg.Fatal("build h3 index", zap.Error(err))
		}
	}

	lg.Info("preprocessing done", zap.String("kv_dir", cfg.KVDir), zap.String("backend", cfg.KVBackend))
}
