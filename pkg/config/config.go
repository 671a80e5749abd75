package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourcePostGIS  = "postgis"
	SourceGeoJSON  = "geojson"
	SourceSnapshot = "snapshot"

	defaultPlanarMaxSnap = 0.1
	defaultMetersMaxSnap = 11000.0
)

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

type Config struct {
	ListenAddr string

	GraphSource   string
	GraphFile     string
	DatabaseURL   string
	VerticesTable string
	WaysTable     string

	KVBackend string
	KVDir     string

	SpatialIndex    string
	SnapMode        string
	SnapMetric      string
	MaxSnapDistance float64

	QueryTimeout   time.Duration
	RouteCacheSize int
	LogLevel       string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error

	cfg := &Config{
		ListenAddr:    get("LISTEN_ADDR", ":5000"),
		GraphSource:   get("GRAPH_SOURCE", SourcePostGIS),
		GraphFile:     get("GRAPH_FILE", ""),
		DatabaseURL:   get("DATABASE_URL", ""),
		VerticesTable: get("VERTICES_TABLE", "topology.vertices"),
		WaysTable:     get("WAYS_TABLE", "topology.ways"),
		KVBackend:     get("KV_BACKEND", "badger"),
		KVDir:         get("KV_DIR", "./routingapi-kv"),
		SpatialIndex:  get("SPATIAL_INDEX", "rtree"),
		SnapMode:      get("SNAP_MODE", "vertex"),
		SnapMetric:    get("SNAP_METRIC", "planar-degree"),
		LogLevel:      get("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = postgresURL(get)
	}

	defaultMax := defaultPlanarMaxSnap
	if cfg.SnapMetric == "great-circle-meters" {
		defaultMax = defaultMetersMaxSnap
	}
	maxSnap, err := strconv.ParseFloat(get("MAX_SNAP_DISTANCE", strconv.FormatFloat(defaultMax, 'f', -1, 64)), 64)
	if err != nil {
		errs = append(errs, &ConfigError{Field: "MAX_SNAP_DISTANCE", Message: "must be a number"})
	}
	cfg.MaxSnapDistance = maxSnap

	timeout, err := time.ParseDuration(get("QUERY_TIMEOUT", "30s"))
	if err != nil {
		errs = append(errs, &ConfigError{Field: "QUERY_TIMEOUT", Message: "must be a duration like 30s"})
	}
	cfg.QueryTimeout = timeout

	cacheSize, err := strconv.Atoi(get("ROUTE_CACHE_SIZE", "1024"))
	if err != nil {
		errs = append(errs, &ConfigError{Field: "ROUTE_CACHE_SIZE", Message: "must be an integer"})
	}
	cfg.RouteCacheSize = cacheSize

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// postgresURL builds a connection url from the POSTGRES_* keys.
func postgresURL(get func(key, fallback string) string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(get("POSTGRES_USER", "postgres"), get("POSTGRES_PASSWORD", "postgres")),
		Host:   get("POSTGRES_HOST", "localhost") + ":" + get("POSTGRES_PORT", "5432"),
		Path:   get("POSTGRES_DB", "routing"),
	}
	return u.String()
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.GraphSource, SourcePostGIS, SourceGeoJSON, SourceSnapshot) {
		errs = append(errs, &ConfigError{Field: "GRAPH_SOURCE", Message: fmt.Sprintf("unknown source %q", c.GraphSource)})
	}
	if c.GraphSource == SourceGeoJSON && c.GraphFile == "" {
		errs = append(errs, &ConfigError{Field: "GRAPH_FILE", Message: "required when GRAPH_SOURCE is geojson"})
	}
	if !oneOf(c.KVBackend, "badger", "pebble") {
		errs = append(errs, &ConfigError{Field: "KV_BACKEND", Message: fmt.Sprintf("unknown backend %q", c.KVBackend)})
	}
	if !oneOf(c.SpatialIndex, "rtree", "h3", "bruteforce") {
		errs = append(errs, &ConfigError{Field: "SPATIAL_INDEX", Message: fmt.Sprintf("unknown index %q", c.SpatialIndex)})
	}
	if !oneOf(c.SnapMode, "vertex", "edge-endpoint") {
		errs = append(errs, &ConfigError{Field: "SNAP_MODE", Message: fmt.Sprintf("unknown mode %q", c.SnapMode)})
	}
	if !oneOf(c.SnapMetric, "planar-degree", "great-circle-meters") {
		errs = append(errs, &ConfigError{Field: "SNAP_METRIC", Message: fmt.Sprintf("unknown metric %q", c.SnapMetric)})
	}
	if c.MaxSnapDistance < 0 {
		errs = append(errs, &ConfigError{Field: "MAX_SNAP_DISTANCE", Message: "must not be negative"})
	}
	if c.QueryTimeout < 0 {
		errs = append(errs, &ConfigError{Field: "QUERY_TIMEOUT", Message: "must not be negative"})
	}
	if c.RouteCacheSize < 0 {
		errs = append(errs, &ConfigError{Field: "ROUTE_CACHE_SIZE", Message: "must not be negative"})
	}
	if !oneOf(c.LogLevel, "debug", "info", "warn", "error") {
		errs = append(errs, &ConfigError{Field: "LOG_LEVEL", Message: fmt.Sprintf("unknown level %q", c.LogLevel)})
	}

	return errors.Join(errs...)
}
