package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthDecisionsTotal *prometheus.CounterVec

	// Key set metrics
	JWKSFetchesTotal     *prometheus.CounterVec
	JWKSFetchDuration    *prometheus.HistogramVec
	KeyCacheLookupsTotal *prometheus.CounterVec
	KeyCacheKeys         prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		// Authorization metrics
		AuthDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_auth_decisions_total",
				Help: "Authorization decisions by result (granted or the failure name)",
			},
			[]string{"result"},
		),

		// Key set metrics
		JWKSFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_jwks_fetches_total",
				Help: "Key set loads by source (provider, shared) and status",
			},
			[]string{"source", "status"},
		),
		JWKSFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_jwks_fetch_duration_seconds",
				Help:    "Key set load duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"source"},
		),
		KeyCacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_jwks_cache_lookups_total",
				Help: "Signing key lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		KeyCacheKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatekeeper_jwks_cache_keys",
				Help: "Number of signing keys currently cached",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthDecisionsTotal,
		m.JWKSFetchesTotal,
		m.JWKSFetchDuration,
		m.KeyCacheLookupsTotal,
		m.KeyCacheKeys,
	)

	return m
}

// RecordDecision counts one authorization outcome. Safe on a nil receiver.
func (m *Metrics) RecordDecision(result string) {
	if m == nil {
		return
	}
	m.AuthDecisionsTotal.WithLabelValues(result).Inc()
}

// RecordFetch counts one key set load. Safe on a nil receiver.
func (m *Metrics) RecordFetch(source string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.JWKSFetchesTotal.WithLabelValues(source, status).Inc()
	m.JWKSFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCacheLookup counts one signing key lookup. Safe on a nil receiver.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.KeyCacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetCachedKeys updates the cached key gauge. Safe on a nil receiver.
func (m *Metrics) SetCachedKeys(n int) {
	if m == nil {
		return
	}
	m.KeyCacheKeys.Set(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics,
// labelled by mux route template.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
