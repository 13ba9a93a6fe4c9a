package bayesavg

import "github.com/kailas-cloud/bayesavg/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrAlreadyExists     = domain.ErrAlreadyExists
	ErrInvalidInput      = domain.ErrInvalidInput
	ErrInsufficientDraws = domain.ErrInsufficientDraws
	ErrUnsamplableModel  = domain.ErrUnsamplableModel
	ErrSimulationFailed  = domain.ErrSimulationFailed
)

// InsufficientDrawsError carries the model that ran short. Use errors.As() to extract it.
type InsufficientDrawsError = domain.InsufficientDrawsError

// UnsamplableModelError names a model the simulation engine cannot draw from.
type UnsamplableModelError = domain.UnsamplableModelError
