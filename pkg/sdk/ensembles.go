package bayesavg

import (
	"context"
	"fmt"
	"time"
)

// EnsembleService manages stored comparison sets.
type EnsembleService struct {
	svc ensembleUseCase
	obs *observer
}

// Create stores a comparison set. models[0] is the denominator; bayesFactors[0] must be 1.
// priorOdds may be nil (equal prior probabilities).
func (s *EnsembleService) Create(
	ctx context.Context, name string, models []string, bayesFactors, priorOdds []float64,
) (_ EnsembleInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ensemble.create", start, err) }()

	e, err := s.svc.Create(ctx, name, models, bayesFactors, priorOdds)
	if err != nil {
		return EnsembleInfo{}, fmt.Errorf("create ensemble: %w", err)
	}
	return fromInternalEnsemble(e), nil
}

// Get retrieves an ensemble by name.
func (s *EnsembleService) Get(ctx context.Context, name string) (_ EnsembleInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ensemble.get", start, err) }()

	e, err := s.svc.Get(ctx, name)
	if err != nil {
		return EnsembleInfo{}, fmt.Errorf("get ensemble: %w", err)
	}
	return fromInternalEnsemble(e), nil
}

// List returns all ensembles, oldest first.
func (s *EnsembleService) List(ctx context.Context) (_ []EnsembleInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ensemble.list", start, err) }()

	list, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ensembles: %w", err)
	}
	out := make([]EnsembleInfo, len(list))
	for i, e := range list {
		out[i] = fromInternalEnsemble(e)
	}
	return out, nil
}

// Delete removes an ensemble. Its fits are left in place.
func (s *EnsembleService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("ensemble.delete", start, err) }()

	if err = s.svc.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete ensemble: %w", err)
	}
	return nil
}
