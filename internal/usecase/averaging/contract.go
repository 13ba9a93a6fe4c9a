package averaging

import (
	"context"
	"math/rand/v2"

	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	"github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// Simulator generates posterior draws for simulated fits.
// It returns a *domain.UnsamplableModelError for fits it cannot draw from.
type Simulator interface {
	Simulate(ctx context.Context, f fit.Fit, n int, src rand.Source) (draws.Table, error)
}

// FitReader loads stored fits.
type FitReader interface {
	Get(ctx context.Context, id string) (fit.Fit, error)
}

// EnsembleReader loads stored comparison sets.
type EnsembleReader interface {
	Get(ctx context.Context, name string) (ensemble.Ensemble, error)
}
