package bayesavg

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/bayesavg/internal/domain"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	dropped    *prometheus.CounterVec
	pooled     *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bayesavg",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by name and outcome (ok, invalid, not_found, conflict, error).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bayesavg",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bayesavg",
			Subsystem: "sdk",
			Name:      "models_dropped_total",
			Help:      "Unsamplable models excluded from averaging runs.",
		}, []string{"operation"}),
		pooled: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bayesavg",
			Subsystem: "sdk",
			Name:      "pooled_draws",
			Help:      "Rows in the pooled posterior returned by averaging runs.",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 10),
		}, []string{"operation"}),
	}
	err := errors.Join(
		registerOrReuse(reg, &m.operations),
		registerOrReuse(reg, &m.duration),
		registerOrReuse(reg, &m.dropped),
		registerOrReuse(reg, &m.pooled),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers *c, or points *c at an identical collector already in reg,
// so several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("bayesavg: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("bayesavg: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcome buckets an operation error for the status label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "conflict"
	default:
		return "error"
	}
}

// observer logs and measures SDK calls. Methods on a nil observer do nothing.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch status {
	case "ok":
		o.logger.Debug("bayesavg call", "op", op, "duration", dur)
	case "error":
		o.logger.Error("bayesavg call failed", "op", op, "duration", dur, "error", err)
	default:
		o.logger.Info("bayesavg call rejected", "op", op, "status", status, "error", err)
	}
}

// averaged records the size of a pooled posterior and any models it lost.
func (o *observer) averaged(op string, res Result) {
	if o == nil {
		return
	}
	dropped := 0
	for _, w := range res.Weights {
		if w.Dropped {
			dropped++
		}
	}
	if o.metrics != nil {
		o.metrics.pooled.WithLabelValues(op).Observe(float64(len(res.Posterior.Rows)))
		o.metrics.dropped.WithLabelValues(op).Add(float64(dropped))
	}
	if o.logger != nil {
		for _, w := range res.Warnings {
			o.logger.Warn("bayesavg averaging warning", "op", op, "warning", w)
		}
	}
}
