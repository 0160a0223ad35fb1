package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks proxy metrics for Prometheus export.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	proxyErrors      *prometheus.CounterVec
}

// NewCollector creates the metric vectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiproxy_requests_total",
				Help: "Total number of proxied requests",
			},
			[]string{"route", "method", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apiproxy_upstream_duration_seconds",
				Help:    "Upstream request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		proxyErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiproxy_errors_total",
				Help: "Total number of proxy pipeline failures by class",
			},
			[]string{"class"},
		),
	}

	reg.MustRegister(c.requestsTotal, c.upstreamDuration, c.proxyErrors)
	return c
}

// RecordRequest records a completed request for a route.
func (c *Collector) RecordRequest(route, method string, status int, upstreamTime time.Duration) {
	c.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.upstreamDuration.WithLabelValues(route).Observe(upstreamTime.Seconds())
}

// RecordError records a pipeline failure by classification name.
func (c *Collector) RecordError(class string) {
	c.proxyErrors.WithLabelValues(class).Inc()
}
