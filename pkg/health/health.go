// Package health aggregates component checks into liveness and readiness reports.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one component check
type Check struct {
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// CheckFunc performs a check
type CheckFunc func() Check

// Response is the aggregated report
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    float64          `json:"uptime_seconds"`
	Checks    map[string]Check `json:"checks"`
}

// Kind selects which set of checks runs
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// HealthChecker holds registered checks
type HealthChecker struct {
	mu      sync.RWMutex
	started time.Time
	checks  map[Kind]map[string]CheckFunc
}

// NewHealthChecker creates a checker whose uptime counts from now
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		started: time.Now(),
		checks: map[Kind]map[string]CheckFunc{
			Liveness:  {},
			Readiness: {},
		},
	}
}

// Register adds a named check of the given kind, replacing any check with the same name
func (hc *HealthChecker) Register(kind Kind, name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[kind][name] = check
}

// Run performs every check of the given kind. The worst status wins.
func (hc *HealthChecker) Run(kind Kind) Response {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks[kind]))
	funcs := make(map[string]CheckFunc, len(hc.checks[kind]))
	for name, fn := range hc.checks[kind] {
		names = append(names, name)
		funcs[name] = fn
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	resp := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(hc.started).Seconds(),
		Checks:    make(map[string]Check, len(names)),
	}
	for _, name := range names {
		start := time.Now()
		check := funcs[name]()
		check.Name = name
		check.Duration = time.Since(start)
		resp.Checks[name] = check

		switch {
		case check.Status == StatusUnhealthy:
			resp.Status = StatusUnhealthy
		case check.Status == StatusDegraded && resp.Status == StatusHealthy:
			resp.Status = StatusDegraded
		}
	}
	return resp
}

// Handler serves the report for kind. Degraded still answers 200.
func (hc *HealthChecker) Handler(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := hc.Run(kind)

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(resp)
	}
}

// CapacityCheck reports degraded above 90% of limit and unhealthy at the limit.
// A limit <= 0 is always healthy.
func CapacityCheck(used func() int, limit int) CheckFunc {
	return func() Check {
		n := used()
		check := Check{
			Status:  StatusHealthy,
			Details: map[string]any{"used": n, "limit": limit},
		}
		switch {
		case limit <= 0:
		case n >= limit:
			check.Status = StatusUnhealthy
			check.Message = "at capacity"
		case n*10 >= limit*9:
			check.Status = StatusDegraded
			check.Message = "near capacity"
		}
		return check
	}
}

// PingCheck reports unhealthy when ping fails within timeout
func PingCheck(ping func(context.Context) error, timeout time.Duration) CheckFunc {
	return func() Check {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy}
	}
}
