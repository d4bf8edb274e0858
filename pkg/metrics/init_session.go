package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSessionMetrics() {
	r.SessionsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "louvain_sessions_active",
			Help: "Sessions currently held by the store",
		},
	)

	r.SessionsCreatedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "louvain_sessions_created_total",
			Help: "Sessions created",
		},
	)

	r.SessionsExpiredTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "louvain_sessions_expired_total",
			Help: "Sessions removed by the idle sweep",
		},
	)

	r.SessionOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "louvain_session_operations_total",
			Help: "Session operations, by operation and status",
		},
		[]string{"operation", "status"},
	)

	r.EventsPublishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "louvain_events_published_total",
			Help: "Session events handed to the event publisher, by type and status",
		},
		[]string{"type", "status"},
	)
}
