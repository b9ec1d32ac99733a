package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// seconds; chart renders are expected in the sub-millisecond to low millisecond range
	buckets = []float64{.0005, .001, .0025, .005, .01, .025, .1}

	RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pmtview",
			Name:      "chart_render_duration_seconds",
			Help:      "Time taken to render a chart scene.",
			Buckets:   buckets,
		},
		[]string{"format"},
	)
	Renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmtview",
		Name:      "chart_renders_total",
		Help:      "Chart renders by output format and result.",
	}, []string{"format", "result"})
	RenderCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pmtview",
		Name:      "chart_render_cache_hits_total",
		Help:      "SVG renders served from the render cache.",
	})
	SnapshotRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmtview",
		Name:      "snapshot_refreshes_total",
		Help:      "Measurement snapshot reloads by result.",
	}, []string{"result"})
	SnapshotPoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pmtview",
		Name:      "snapshot_points",
		Help:      "Measurements held in the current snapshot.",
	})
	ChartExports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmtview",
		Name:      "chart_exports_total",
		Help:      "Charts exported to object storage by result.",
	}, []string{"result"})
)

// Register adds every collector to r
func Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		RenderDuration,
		Renders,
		RenderCacheHits,
		SnapshotRefreshes,
		SnapshotPoints,
		ChartExports,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
