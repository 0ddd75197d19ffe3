// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared across counters.
const (
	// outcomeOK marks a request that completed successfully.
	outcomeOK = "ok"
	// outcomeRejected marks a request refused for a client-side reason
	// (bad input, unknown session, unreadable document).
	outcomeRejected = "rejected"
	// outcomeError marks a request that failed on the server side.
	outcomeError = "error"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// uploadsTotal counts completed /upload requests, partitioned by outcome.
	uploadsTotal *prometheus.CounterVec

	// questionsTotal counts completed /ask requests, partitioned by outcome.
	questionsTotal *prometheus.CounterVec

	// sessionsActive is the number of sessions currently registered by this
	// server instance.
	sessionsActive prometheus.Gauge

	// chunksIndexed records the number of chunks produced per uploaded
	// document.
	chunksIndexed prometheus.Histogram

	// httpRequestsTotal counts all HTTP requests handled by the router,
	// partitioned by method, path, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfchat",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total number of /upload requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		questionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfchat",
			Subsystem: "ask",
			Name:      "questions_total",
			Help:      "Total number of /ask requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfchat",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of document sessions currently registered.",
		}),

		chunksIndexed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdfchat",
			Subsystem: "ingest",
			Name:      "chunks_per_document",
			Help:      "Number of chunks indexed per uploaded document.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfchat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, path, and status code.",
		}, []string{"method", "path", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfchat",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
