package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AuthFailuresTotal    prometheus.Counter

	// Louvain Metrics
	TicksTotal        *prometheus.CounterVec
	MovesTotal        prometheus.Counter
	MoveGain          prometheus.Histogram
	PassesTotal       prometheus.Counter
	LevelsTotal       prometheus.Counter
	LevelDuration     prometheus.Histogram
	LevelTicks        prometheus.Histogram
	LastModularity    prometheus.Gauge
	AggregationsTotal *prometheus.CounterVec

	// Session Metrics
	SessionsActive         prometheus.Gauge
	SessionsCreatedTotal   prometheus.Counter
	SessionsExpiredTotal   prometheus.Counter
	SessionOperationsTotal *prometheus.CounterVec
	EventsPublishedTotal   *prometheus.CounterVec

	// Runtime Metrics
	BuildInfo      *prometheus.GaugeVec
	UptimeSeconds  prometheus.Gauge
	GoRoutines     prometheus.Gauge
	HeapAllocBytes prometheus.Gauge
	GCCycles       prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initLouvainMetrics()
	r.initSessionMetrics()
	r.initRuntimeMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
