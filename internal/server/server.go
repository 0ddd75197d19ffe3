// Package server implements the HTTP API for session-scoped document chat:
// upload a document, ask questions grounded in it, and delete the session.
// The server is started by the `pdfchat serve` CLI command.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/pdfchat-go/internal/pipeline"
)

// defaultMaxUploadBytes caps uploads at 32 MiB.
const defaultMaxUploadBytes = 32 << 20

// New constructs a Server from the pipeline flows and config.
func New(ing *pipeline.Ingestor, ans *pipeline.Answerer, td *pipeline.Teardown, cfg *Config) (*Server, error) {
	if ing == nil {
		return nil, fmt.Errorf("server: ingestor must not be nil")
	}
	if ans == nil {
		return nil, fmt.Errorf("server: answerer must not be nil")
	}
	if td == nil {
		return nil, fmt.Errorf("server: teardown must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover embedding plus one LLM generation.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		ingest:  ing,
		answer:  ans,
		remove:  td,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(reg),
	}

	rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stop

	if cfg.APIKey == "" {
		cfg.Logger.Warn("auth: PDFCHAT_API_KEY not set — API authentication is disabled")
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return requestLogger(cfg.Logger, next) })
	r.Use(s.metricsMiddleware)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Document routes: rate-limited and authenticated.
	r.Group(func(r chi.Router) {
		r.Use(rl.middleware)
		r.Use(func(next http.Handler) http.Handler { return authMiddleware(cfg.APIKey, next) })

		r.Post("/upload", s.handleUpload)
		r.Get("/ask", s.handleAsk)
		r.Delete("/delete", s.handleDelete)
	})

	// Operational routes: open so probes and scrapers need no credentials.
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("pdfchat server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler. Used by tests to drive the
// full middleware chain through httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
