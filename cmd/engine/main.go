package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	_ "github.com/lintang-b-s/routingapi/docs"
	"github.com/lintang-b-s/routingapi/pkg/config"
	"github.com/lintang-b-s/routingapi/pkg/engine"
	"github.com/lintang-b-s/routingapi/pkg/kv"
	"github.com/lintang-b-s/routingapi/pkg/logger"
	"github.com/lintang-b-s/routingapi/pkg/server/rest"
	"github.com/lintang-b-s/routingapi/pkg/server/rest/service"
	"github.com/lintang-b-s/routingapi/pkg/snap"
	"github.com/lintang-b-s/routingapi/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	listenAddr = flag.String("listenaddr", "", "server listen address, overrides LISTEN_ADDR")
	graphFile  = flag.String("f", "", "geojson road network file, overrides GRAPH_FILE")
	swaggerURL = flag.String("swagger", "http://localhost:5000/swagger/doc.json", "url of the api definition, empty disables /swagger")
	profiler   = flag.Bool("profiler", false, "mount pprof under /debug")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

//	@title			routingapi
//	@version		1.0
//	@description	road network routing engine in go. Snaps both endpoints to the road graph and runs Dijkstra between them

//	@contact.name	lintang birda saputra

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *graphFile != "" {
		cfg.GraphSource = config.SourceGeoJSON
		cfg.GraphFile = *graphFile
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	if *cpuprofile != "" {
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

	var store kv.Store
	if cfg.GraphSource == config.SourceSnapshot || cfg.SpatialIndex == engine.IndexH3 {
		store, err = kv.Open(cfg.KVBackend, cfg.KVDir)
		if err != nil {
			lg.Fatal("open kv store", zap.String("backend", cfg.KVBackend), zap.Error(err))
		}
		defer store.Close()
	}

	g, err := storage.LoadGraph(ctx, storage.Source{
		Kind:          cfg.GraphSource,
		File:          cfg.GraphFile,
		DatabaseURL:   cfg.DatabaseURL,
		VerticesTable: cfg.VerticesTable,
		WaysTable:     cfg.WaysTable,
		Store:         store,
	}, lg)
	if err != nil {
		lg.Fatal("load graph", zap.String("source", cfg.GraphSource), zap.Error(err))
	}
	recordMemProfile(memprofile, "load_graph")

	snapMode, err := snap.ParseMode(cfg.SnapMode)
	if err != nil {
		lg.Fatal("snap mode", zap.Error(err))
	}

	routingEngine, err := engine.Build(g, engine.BuildOptions{
		SpatialIndex:    cfg.SpatialIndex,
		SnapMode:        snapMode,
		SnapMetric:      cfg.SnapMetric,
		MaxSnapDistance: cfg.MaxSnapDistance,
		RouteCacheSize:  cfg.RouteCacheSize,
		QueryTimeout:    cfg.QueryTimeout,
		Store:           store,
	}, lg)
	if err != nil {
		lg.Fatal("build routing engine", zap.Error(err))
	}

	navigatorSvc := service.NewNavigationService(routingEngine)
	recordMemProfile(memprofile, "service_init")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := rest.NewRouter(navigatorSvc, reg, rest.RouterOptions{
		SwaggerURL: *swaggerURL,
		Profiler:   *profiler,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.QueryTimeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("server shutdown", zap.Error(err))
		}
	}()

	lg.Info("server started", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("listen", zap.Error(err))
	}
	lg.Info("server stopped")
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		path := strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
