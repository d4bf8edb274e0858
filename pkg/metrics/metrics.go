package metrics

import (
	"runtime"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncHTTPRequestsInFlight marks a request as started
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks a request as finished
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordAuthFailure counts a rejected bearer token
func (r *Registry) RecordAuthFailure() {
	r.AuthFailuresTotal.Inc()
}

// RecordTick counts one tick taken from the named phase
func (r *Registry) RecordTick(phase string) {
	r.TicksTotal.WithLabelValues(phase).Inc()
}

// RecordMove records an applied move
func (r *Registry) RecordMove(gain float64) {
	r.MovesTotal.Inc()
	r.MoveGain.Observe(gain)
}

// RecordPass counts a completed pass
func (r *Registry) RecordPass() {
	r.PassesTotal.Inc()
}

// RecordLevel records a level that ran to convergence
func (r *Registry) RecordLevel(duration time.Duration, ticks int, modularity float64) {
	r.LevelsTotal.Inc()
	r.LevelDuration.Observe(duration.Seconds())
	r.LevelTicks.Observe(float64(ticks))
	r.LastModularity.Set(modularity)
}

// RecordAggregation records an aggregation attempt
func (r *Registry) RecordAggregation(status string) {
	r.AggregationsTotal.WithLabelValues(status).Inc()
}

// RecordSessionOperation records an operation on a session
func (r *Registry) RecordSessionOperation(operation, status string) {
	r.SessionOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordEvent records a published, dropped or failed session event
func (r *Registry) RecordEvent(eventType, status string) {
	r.EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

// SetActiveSessions sets the live session count
func (r *Registry) SetActiveSessions(n int) {
	r.SessionsActive.Set(float64(n))
}

// SetBuildInfo publishes the running version
func (r *Registry) SetBuildInfo(version string) {
	r.BuildInfo.WithLabelValues(version).Set(1)
}

// UpdateSystemMetrics refreshes uptime and runtime gauges
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.HeapAllocBytes.Set(float64(mem.HeapAlloc))
	r.GCCycles.Set(float64(mem.NumGC))
}
