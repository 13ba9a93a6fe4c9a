package metrics

import "github.com/prometheus/client_golang/prometheus"

// Averaging Prometheus metrics.
var (
	AveragingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesavg",
			Name:      "averaging_runs_total",
			Help:      "Total number of model-averaging runs",
		},
		[]string{"kind", "status"},
	)

	PooledDraws = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bayesavg",
			Name:      "pooled_draws",
			Help:      "Rows in the pooled posterior per averaging run",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 10),
		},
	)

	ModelsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesavg",
			Name:      "models_dropped_total",
			Help:      "Models excluded from an averaging run",
		},
		[]string{"reason"},
	)

	SimulationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bayesavg",
			Name:      "simulation_duration_seconds",
			Help:      "Posterior simulation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"status"},
	)

	FitCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bayesavg",
			Name:      "fit_cache_total",
			Help:      "Fit cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var avgMetricsRegistered bool

// RegisterAveragingMetrics registers Prometheus averaging metrics. Must be called once from main.
func RegisterAveragingMetrics() {
	if avgMetricsRegistered {
		return
	}
	prometheus.MustRegister(AveragingRunsTotal)
	prometheus.MustRegister(PooledDraws)
	prometheus.MustRegister(ModelsDroppedTotal)
	prometheus.MustRegister(SimulationDuration)
	prometheus.MustRegister(FitCacheTotal)
	avgMetricsRegistered = true
}
