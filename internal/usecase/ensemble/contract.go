package ensemble

import (
	"context"

	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// Repository defines the storage contract for ensembles.
type Repository interface {
	Create(ctx context.Context, e domens.Ensemble) error
	Get(ctx context.Context, name string) (domens.Ensemble, error)
	List(ctx context.Context) ([]domens.Ensemble, error)
	Delete(ctx context.Context, name string) error
}

// FitReader resolves the fits an ensemble refers to.
type FitReader interface {
	Get(ctx context.Context, id string) (fit.Fit, error)
}
