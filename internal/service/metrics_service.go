package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

const metricsNamespace = "pledge"

// MetricsService owns the ledger's Prometheus registry and keeps a few running totals for the
// status endpoint.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests       *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	cacheLatency   *prometheus.HistogramVec
	pointChanges   *prometheus.CounterVec
	reviews        *prometheus.CounterVec
	recovered      *prometheus.CounterVec
	skippedRows    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	digestRuns     *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	recoveredCount       uint64
}

// NewMetricsService registers the ledger collectors together with the Go runtime and process
// collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of API requests by route and status.",
		Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route", "status"})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Read model cache lookups by result.",
	}, []string{"result"})

	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Latency of read model cache operations.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1},
	}, []string{"op"})

	m.pointChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "ledger",
		Name:      "point_changes_total",
		Help:      "Point change attempts by outcome.",
	}, []string{"result"})

	m.reviews = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "ledger",
		Name:      "pending_reviews_total",
		Help:      "Pending request reviews by decision and outcome.",
	}, []string{"decision", "result"})

	m.recovered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "ledger",
		Name:      "storage_recovered_total",
		Help:      "Flat files that were unreadable and replaced by an empty table.",
	}, []string{"store"})

	m.skippedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "ledger",
		Name:      "rows_skipped_total",
		Help:      "Rows left out of a loaded table because they could not be decoded.",
	}, []string{"store"})

	m.renderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "report",
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering report artifacts.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	m.digestRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "digest",
		Name:      "runs_total",
		Help:      "Nightly digest runs by status.",
	}, []string{"status"})

	m.registry.MustRegister(
		m.requests, m.cacheLookups, m.cacheLatency, m.pointChanges,
		m.reviews, m.recovered, m.skippedRows, m.renderDuration, m.digestRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Registry exposes the private registry for tests and additional collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a read model lookup as a hit or a miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("fetch").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite records the latency of storing a read model.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("store").Observe(duration.Seconds())
}

// RecordPointChange counts an apply attempt; result is "applied", "rejected" or "failed".
func (m *MetricsService) RecordPointChange(result string) {
	if m == nil {
		return
	}
	m.pointChanges.WithLabelValues(result).Inc()
}

// RecordReview counts an approve or reject decision.
func (m *MetricsService) RecordReview(decision models.PendingStatus, success bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !success {
		result = "failed"
	}
	m.reviews.WithLabelValues(string(decision), result).Inc()
}

// RecordStorageRecovered counts a flat file that was replaced by an empty table.
func (m *MetricsService) RecordStorageRecovered(store string) {
	if m == nil {
		return
	}
	m.recovered.WithLabelValues(store).Inc()
	atomic.AddUint64(&m.recoveredCount, 1)
}

// RecordSkippedRows counts rows of store that were skipped while loading.
func (m *MetricsService) RecordSkippedRows(store string, n int) {
	if m == nil {
		return
	}
	m.skippedRows.WithLabelValues(store).Add(float64(n))
}

// ObserveRender records the time spent producing a report artifact.
func (m *MetricsService) ObserveRender(kind models.ArtifactKind, duration time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

// RecordDigestRun counts a digest run by status.
func (m *MetricsService) RecordDigestRun(status string) {
	if m == nil {
		return
	}
	m.digestRuns.WithLabelValues(status).Inc()
}

// Snapshot returns the running totals shown by the status endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	snapshot := models.MetricsSnapshot{
		RequestsTotal:     atomic.LoadUint64(&m.requestCount),
		StorageRecoveries: atomic.LoadUint64(&m.recoveredCount),
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	if lookups := hits + atomic.LoadUint64(&m.cacheMissCount); lookups > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(lookups)
	}
	if snapshot.RequestsTotal > 0 {
		total := time.Duration(atomic.LoadUint64(&m.requestDurationTotal))
		snapshot.AverageRequestDurationMs = float64(total) / float64(snapshot.RequestsTotal) / float64(time.Millisecond)
	}
	return snapshot
}
