package fit

import (
	"context"

	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// Repository defines the storage contract for fits.
type Repository interface {
	Create(ctx context.Context, f domfit.Fit) error
	Get(ctx context.Context, id string) (domfit.Fit, error)
	List(ctx context.Context) ([]domfit.Fit, error)
	Delete(ctx context.Context, id string) error
}
