// Package metrics provides the Prometheus metrics sink shared by all modules.
// A Metrics value is created once in main and injected; it is never torn down.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "webjs"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	rawEndpointSuccess *prometheus.CounterVec
	endpointDuration   *prometheus.HistogramVec
	requestDuration    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		rawEndpointSuccess: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "raw_endpoint_success_total",
				Help:      "Requests answered by raw (non-API) endpoints, hit or miss.",
			},
			[]string{"endpoint"},
		),
		endpointDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "endpoint_duration_seconds",
				Help:      "Time spent in a timed endpoint handler.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.rawEndpointSuccess, m.endpointDuration, m.requestDuration)
	return m
}

// IncRawEndpointSuccess bumps the success counter for endpoint.
func (m *Metrics) IncRawEndpointSuccess(endpoint string) {
	m.rawEndpointSuccess.WithLabelValues(endpoint).Inc()
}

// RawEndpointSuccess exposes the counter for assertions.
func (m *Metrics) RawEndpointSuccess() *prometheus.CounterVec {
	return m.rawEndpointSuccess
}

// ObserveEndpoint records how long a timed endpoint took.
func (m *Metrics) ObserveEndpoint(endpoint string, d time.Duration) {
	m.endpointDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Timed wraps the remaining handler chain and records its duration under endpoint.
func (m *Metrics) Timed(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveEndpoint(endpoint, time.Since(start))
	}
}

// RequestTimer records every request by method, matched route and status.
func (m *Metrics) RequestTimer() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
