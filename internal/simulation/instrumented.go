package simulation

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	"github.com/kailas-cloud/bayesavg/internal/metrics"
)

// Engine draws posterior samples for a simulated fit.
type Engine interface {
	Simulate(ctx context.Context, f fit.Fit, n int, src rand.Source) (draws.Table, error)
}

// Instrumented wraps an Engine with duration metrics and debug logging.
type Instrumented struct {
	inner  Engine
	logger *zap.Logger
}

// NewInstrumented wraps an engine with observability.
func NewInstrumented(inner Engine, logger *zap.Logger) *Instrumented {
	return &Instrumented{inner: inner, logger: logger}
}

// Simulate delegates to the inner engine and records the outcome.
// Errors pass through unchanged so callers can still classify them.
func (s *Instrumented) Simulate(ctx context.Context, f fit.Fit, n int, src rand.Source) (draws.Table, error) {
	start := time.Now()
	tbl, err := s.inner.Simulate(ctx, f, n, src)
	duration := time.Since(start)

	status := "ok"
	switch {
	case errors.Is(err, domain.ErrUnsamplableModel):
		status = "unsamplable"
	case err != nil:
		status = "error"
	}
	metrics.SimulationDuration.WithLabelValues(status).Observe(duration.Seconds())

	if err != nil {
		s.logger.Debug("Simulation failed",
			zap.String("fit", f.ID()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return draws.Table{}, err //nolint:wrapcheck // decorator keeps the engine's error intact
	}

	s.logger.Debug("Simulation completed",
		zap.String("fit", f.ID()),
		zap.Int("draws", tbl.NumRows()),
		zap.Int("parameters", tbl.NumColumns()),
		zap.Duration("duration", duration),
	)
	return tbl, nil
}
