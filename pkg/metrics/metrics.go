// Package metrics provides Prometheus instrumentation for dinesync.
//
// It pre-defines the metrics the gateway and the backend clients need and
// gives you helpers to register your own.
//
// Wire it up once when building the gateway router:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", metrics.Handler())
//
// Then scrape http://localhost:8080/metrics from Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Gateway HTTP metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long each gateway request takes,
	// broken down by method, route path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dinesync",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of gateway HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all gateway requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinesync",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of gateway HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many gateway requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dinesync",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of gateway HTTP requests currently being served.",
	})

	// ─────────────────────────────────────────────
	// Backend client metrics
	// ─────────────────────────────────────────────

	// BackendRequestDuration tracks latency of calls to the restaurant REST API.
	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dinesync",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to the restaurant backend in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource", "operation", "status"},
	)

	// BackendRequestTotal counts calls to the restaurant REST API.
	BackendRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinesync",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total calls to the restaurant backend.",
		},
		[]string{"resource", "operation", "status"},
	)

	// ─────────────────────────────────────────────
	// Realtime channel metrics
	// ─────────────────────────────────────────────

	// RealtimeReconnects counts reconnect attempts by outcome.
	RealtimeReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinesync",
			Subsystem: "realtime",
			Name:      "reconnects_total",
			Help:      "Realtime channel reconnect attempts by outcome.",
		},
		[]string{"outcome"}, // "success" | "failure"
	)

	// RealtimeEvents counts realtime events received by name.
	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinesync",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Realtime events received, by event name.",
		},
		[]string{"event"},
	)

	// WorkingSetSize tracks the size of each mounted order working set.
	WorkingSetSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dinesync",
			Subsystem: "orders",
			Name:      "working_set_size",
			Help:      "Orders currently held by each view's working set.",
		},
		[]string{"view"},
	)

	// CacheHits / CacheMisses track catalog cache effectiveness.
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinesync",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits.",
		},
		[]string{"driver"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dinesync",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses.",
		},
		[]string{"driver"},
	)
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by dinesync.
// Register your own metrics against this.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory)
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	// OS process metrics (CPU, open FDs)
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		BackendRequestDuration,
		BackendRequestTotal,
		RealtimeReconnects,
		RealtimeEvents,
		WorkingSetSize,
		CacheHits,
		CacheMisses,
	)
}

// Register lets you add your own prometheus.Collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ObserveBackend records one finished backend call:
//
//	metrics.ObserveBackend("orders", "list", resp.StatusCode, start)
func ObserveBackend(resource, operation string, status int, start time.Time) {
	s := strconv.Itoa(status)
	BackendRequestDuration.WithLabelValues(resource, operation, s).Observe(time.Since(start).Seconds())
	BackendRequestTotal.WithLabelValues(resource, operation, s).Inc()
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware returns an http.Handler middleware that records Prometheus
// metrics for every gateway request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rr.status)

			RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Handler returns an http.HandlerFunc that exposes the Prometheus metrics page.
// Mount it on GET /metrics in the gateway router.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}
