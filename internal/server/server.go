// Package server wires the HTTP surface: routing, CORS, rate limiting,
// API-key enforcement, and the JSON handlers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/apikey"
	"github.com/carverauto/srql/internal/config"
	"github.com/carverauto/srql/internal/dualrun"
	"github.com/carverauto/srql/internal/metrics"
	"github.com/carverauto/srql/internal/query"
	"github.com/carverauto/srql/internal/ratelimit"
)

// Server owns the HTTP listener and its collaborators.
type Server struct {
	cfg     *config.AppConfig
	engine  *query.Engine
	keys    *apikey.Store
	limiter *ratelimit.FixedWindow
	dual    *dualrun.Comparator
}

// New assembles the server. dual may be nil (shadow comparison off).
func New(cfg *config.AppConfig, engine *query.Engine, keys *apikey.Store, limiter *ratelimit.FixedWindow, dual *dualrun.Comparator) *Server {
	return &Server{cfg: cfg, engine: engine, keys: keys, limiter: limiter, dual: dual}
}

// Router builds the route tree. Health and metrics bypass rate limiting
// and auth; the query surface sits behind both.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "x-api-key"},
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Use(s.rateLimit)
		r.Post("/api/query", s.handleQuery)
		r.Post("/translate", s.handleTranslate)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.InfoS("SRQL listening", "addr", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// rateLimit admits one permit per request, held until the response is
// written. Cancelled waiters give their slot back implicitly: the permit
// was never taken.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if err := s.limiter.Acquire(r.Context()); err != nil {
			http.Error(w, `{"error":"request cancelled"}`, http.StatusServiceUnavailable)
			return
		}
		metrics.RateLimitWait.Observe(time.Since(start).Seconds())
		defer s.limiter.Release()
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		klog.V(2).InfoS("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
		)
	})
}
