package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpLabels carry the matched route pattern as path, never the raw URL
var httpLabels = []string{"method", "path", "status"}

func (r *Registry) initHTTPMetrics() {
	factory := promauto.With(r.registry)

	r.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "louvain_http_requests_total",
		Help: "HTTP requests served",
	}, httpLabels)

	// 1ms to 16s, covering /run and /communities on large graphs
	r.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "louvain_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, httpLabels)

	r.HTTPRequestsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "louvain_http_requests_in_flight",
		Help: "HTTP requests being processed",
	})

	r.AuthFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "louvain_auth_failures_total",
		Help: "Requests rejected for a missing or invalid bearer token",
	})
}
