package rest

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RouterOptions struct {
	// SwaggerURL points to the generated API definition, empty disables /swagger.
	SwaggerURL string
	// Profiler mounts net/http/pprof under /debug.
	Profiler bool
}

func NewRouter(svc NavigationService, reg *prometheus.Registry, opts RouterOptions) *chi.Mux {
	m := NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Profiler {
		r.Mount("/debug", middleware.Profiler())
	}

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if opts.SwaggerURL != "" {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL(opts.SwaggerURL), //The url pointing to API definition
		))
	}

	NavigatorRouter(r, svc, m)
	return r
}
