// Package api exposes the bookshelf services over HTTP with huma on a chi
// router. Every body, including errors, is wrapped in the versioned
// envelope produced by EnvelopeTransformer.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookshelfapp/bookshelf-server/internal/http/response"
	"github.com/bookshelfapp/bookshelf-server/internal/ratelimit"
)

// Pinger reports whether a backing component is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	Name    string
	Version string
	// Debug echoes the cause of 500 responses in error details.
	Debug          bool
	AllowedOrigins []string
	// LoginRate is login attempts per second allowed per client IP.
	LoginRate  float64
	LoginBurst int
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "Bookshelf API"
	}
	if o.Version == "" {
		o.Version = "1.0.0"
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.LoginRate <= 0 {
		o.LoginRate = 1
	}
	if o.LoginBurst <= 0 {
		o.LoginBurst = 10
	}
	return o
}

// Server is the HTTP API server.
type Server struct {
	store        Pinger
	cache        Pinger
	services     *Services
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
	opts         Options
	loginLimiter *RateLimiter
}

// NewServer creates the router, registers every operation, and returns a
// ready http.Handler. cache may be nil when caching is disabled.
func NewServer(store Pinger, cache Pinger, services *Services, opts Options, logger *slog.Logger) *Server {
	opts = opts.withDefaults()

	router := chi.NewRouter()

	s := &Server{
		store:        store,
		cache:        cache,
		services:     services,
		router:       router,
		logger:       logger,
		opts:         opts,
		loginLimiter: ratelimit.New(opts.LoginRate, opts.LoginBurst),
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(limitRoute(http.MethodPost, "/auth/login", RateLimitMiddleware(s.loginLimiter, logger)))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found", logger)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "Method not allowed", logger)
	})
	router.Handle("/metrics", promhttp.Handler())

	humaConfig := huma.DefaultConfig(opts.Name, opts.Version)
	humaConfig.Info.Description = "Book catalog with reviews, AI summaries, and cached recommendations"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler(logger, opts.Debug)

	s.registerRootRoutes()
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerReviewRoutes()
	s.registerAIRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown releases the login limiter.
func (s *Server) Shutdown() error {
	s.loginLimiter.Stop()
	return nil
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}
