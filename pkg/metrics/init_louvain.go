package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLouvainMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "louvain_ticks_total",
			Help: "Ticks executed, by the phase the state was in before the tick",
		},
		[]string{"phase"},
	)

	r.MovesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "louvain_moves_total",
			Help: "Node moves applied",
		},
	)

	r.MoveGain = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "louvain_move_gain",
			Help:    "Modularity gain of applied moves",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	r.PassesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "louvain_passes_total",
			Help: "Completed passes over the node list",
		},
	)

	r.LevelsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "louvain_levels_total",
			Help: "Levels run to convergence",
		},
	)

	r.LevelDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "louvain_level_duration_seconds",
			Help:    "Wall time to run one level to convergence",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.LevelTicks = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "louvain_level_ticks",
			Help:    "Ticks needed to converge one level",
			Buckets: prometheus.ExponentialBuckets(4, 4, 8),
		},
	)

	r.LastModularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "louvain_last_modularity",
			Help: "Modularity of the most recently converged level",
		},
	)

	r.AggregationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "louvain_aggregations_total",
			Help: "Aggregation steps, by status",
		},
		[]string{"status"},
	)
}
