// Package server exposes the recommender over a small JSON HTTP API.
//
// Routes:
//
//	GET /api/v1/talks?q=&limit=            selectable talks
//	GET /api/v1/recommendations?title=&k=  ranked similar talks
//	GET /healthz                           liveness plus catalog size
//	GET /metrics                           Prometheus exposition
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kamusis/talkrec/internal/config"
	"github.com/kamusis/talkrec/internal/logging"
	"github.com/kamusis/talkrec/internal/metrics"
	"github.com/kamusis/talkrec/internal/recommend"
)

// Server serves one Recommender. The Recommender is read-only, so handlers share it
// without locking.
type Server struct {
	rec      *recommend.Recommender
	cfg      config.ServerConfig
	defaultK int
	log      zerolog.Logger
	tracer   trace.Tracer
}

// tracerName scopes spans emitted by this package.
const tracerName = "github.com/kamusis/talkrec/internal/server"

// New returns a Server for rec. defaultK is used when a request omits k.
// Spans go to the global tracer provider as installed at the time of the call.
func New(rec *recommend.Recommender, cfg config.ServerConfig, defaultK int) *Server {
	if defaultK < 1 {
		defaultK = 10
	}
	metrics.CatalogTalks.Set(float64(rec.Len()))
	return &Server{
		rec:      rec,
		cfg:      cfg,
		defaultK: defaultK,
		log:      logging.With("server"),
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
	}
}

// Handler builds the chi router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(prometheusMetrics)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Get("/talks", s.handleTalks)
		r.Get("/recommendations", s.handleRecommendations)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Int("talks", s.rec.Len()).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
