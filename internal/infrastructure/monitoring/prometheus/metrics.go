// Package prometheus exposes the process metrics: ingestion progress and
// HTTP request accounting, served on /metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "patreg"

// Metrics holds every collector the process registers. It implements the
// ingestion.Metrics interface and is shared with the HTTP middleware.
type Metrics struct {
	registry *prometheus.Registry

	rowsRead      *prometheus.CounterVec
	rowsCommitted *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec
	batchesFailed *prometheus.CounterVec
	chunkDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics builds and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)

	m := &Metrics{
		registry: registry,
		rowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_read_total",
			Help:      "Rows read from source files.",
		}, []string{"entity"}),
		rowsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_committed_total",
			Help:      "Rows successfully persisted.",
		}, []string{"entity"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_skipped_total",
			Help:      "Rows skipped during decoding, by reason.",
		}, []string{"entity", "reason"}),
		batchesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "batches_failed_total",
			Help:      "Chunks rolled back at persistence.",
		}, []string{"entity"}),
		chunkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "chunk_duration_seconds",
			Help:      "Wall time per processed chunk.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"entity"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.rowsRead, m.rowsCommitted, m.rowsSkipped, m.batchesFailed,
		m.chunkDuration, m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RowsRead implements ingestion.Metrics.
func (m *Metrics) RowsRead(entity string, n int) {
	m.rowsRead.WithLabelValues(entity).Add(float64(n))
}

// RowsCommitted implements ingestion.Metrics.
func (m *Metrics) RowsCommitted(entity string, n int) {
	m.rowsCommitted.WithLabelValues(entity).Add(float64(n))
}

// RowsSkipped implements ingestion.Metrics.
func (m *Metrics) RowsSkipped(entity, reason string, n int) {
	m.rowsSkipped.WithLabelValues(entity, reason).Add(float64(n))
}

// BatchFailed implements ingestion.Metrics.
func (m *Metrics) BatchFailed(entity string, rows int) {
	m.batchesFailed.WithLabelValues(entity).Inc()
}

// ChunkDuration implements ingestion.Metrics.
func (m *Metrics) ChunkDuration(entity string, d time.Duration) {
	m.chunkDuration.WithLabelValues(entity).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
