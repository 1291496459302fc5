package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the service's Prometheus collectors. Each server owns its
// registry so tests can build several servers in one process.
type metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	operations *prometheus.HistogramVec
	rows       *prometheus.CounterVec
}

func newMetrics(datasets func() int, limiter *Limiter) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabprep",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabprep",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabprep",
			Name:      "operation_duration_seconds",
			Help:      "Dataset operation latency by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabprep",
			Name:      "rows_ingested_total",
			Help:      "Rows loaded into datasets by origin.",
		}, []string{"origin"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.operations,
		m.rows,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tabprep",
			Name:      "datasets",
			Help:      "Datasets held in memory.",
		}, func() float64 { return float64(datasets()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tabprep",
			Name:      "active_operations",
			Help:      "Uploads and pipeline runs holding a processing slot.",
		}, func() float64 {
			active, _ := limiter.Status()
			return float64(active)
		}),
		collectors.NewGoCollector(),
	)
	return m
}

// handler serves the registry in the Prometheus text format.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware records request counts and latency keyed by route pattern.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// observe records one dataset operation.
func (m *metrics) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}
