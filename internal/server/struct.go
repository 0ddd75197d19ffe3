package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/pdfchat-go/internal/pipeline"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	// Must cover a full LLM generation round-trip.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps the size of an uploaded document (default: 32 MiB).
	MaxUploadBytes int64
	// CORSOrigins is the list of origins allowed to call the API from a
	// browser. Empty disables CORS headers entirely.
	CORSOrigins []string
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /ready.
	// If empty, /ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP (requests/second).
	// Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on the document routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil a private
	// registry is created, keeping tests hermetic.
	Registry *prometheus.Registry
}

// ingestor is the interface handleUpload calls to run the ingestion flow.
// *pipeline.Ingestor satisfies it; tests inject a fake.
type ingestor interface {
	Ingest(ctx context.Context, data []byte, filename string) (pipeline.IngestResult, error)
}

// answerer is the interface handleAsk calls to answer a question.
type answerer interface {
	Answer(ctx context.Context, sessionID, question string) (string, error)
}

// deleter is the interface handleDelete calls to tear down a session.
type deleter interface {
	Delete(ctx context.Context, sessionID string) error
}

// Server is the HTTP server exposing the document chat API.
type Server struct {
	// ingest runs the upload flow; set from *pipeline.Ingestor in production.
	ingest ingestor
	// answer runs the question flow; set from *pipeline.Answerer in production.
	answer answerer
	// remove runs the teardown flow; set from *pipeline.Teardown in production.
	remove deleter
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// uploadResponse is the JSON response for POST /upload.
type uploadResponse struct {
	// Message is a human-readable confirmation.
	Message string `json:"message"`
	// SessionID identifies the new session for /ask and /delete calls.
	SessionID string `json:"session_id"`
	// Filename is the name recorded for the uploaded document.
	Filename string `json:"filename"`
}

// askResponse is the JSON response for GET /ask.
type askResponse struct {
	// Answer is the grounded answer text.
	Answer string `json:"answer"`
}

// deleteResponse is the JSON response for DELETE /delete.
type deleteResponse struct {
	// Message is a human-readable confirmation.
	Message string `json:"message"`
}

// errorResponse is the JSON error body used by every endpoint.
type errorResponse struct {
	// Detail is the human-readable failure reason.
	Detail string `json:"detail"`
}
