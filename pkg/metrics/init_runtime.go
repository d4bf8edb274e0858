package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRuntimeMetrics() {
	factory := promauto.With(r.registry)

	r.BuildInfo = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "louvain_build_info",
		Help: "Always 1, labelled with the running version",
	}, []string{"version"})

	r.UptimeSeconds = factory.NewGauge(prometheus.GaugeOpts{
		Name: "louvain_uptime_seconds",
		Help: "Seconds since the server started",
	})
	r.GoRoutines = factory.NewGauge(prometheus.GaugeOpts{
		Name: "louvain_goroutines",
		Help: "Goroutines alive at the last refresh",
	})
	r.HeapAllocBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "louvain_heap_alloc_bytes",
		Help: "Heap bytes held by session snapshots and everything else",
	})
	r.GCCycles = factory.NewGauge(prometheus.GaugeOpts{
		Name: "louvain_gc_cycles",
		Help: "Completed garbage collection cycles",
	})
}
