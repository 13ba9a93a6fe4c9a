package ensemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// Service handles ensemble CRUD operations.
type Service struct {
	repo      Repository
	fits      FitReader
	maxModels int
}

// New creates an ensemble service.
func New(repo Repository, fits FitReader, maxModels int) *Service {
	return &Service{repo: repo, fits: fits, maxModels: maxModels}
}

// Create validates and stores an ensemble.
// Every model must be a registered fit and all of them must share one kind.
func (s *Service) Create(
	ctx context.Context, name string, models []string, bayesFactors, priorOdds []float64,
) (domens.Ensemble, error) {
	e, err := domens.New(name, models, bayesFactors, priorOdds, s.maxModels)
	if err != nil {
		return domens.Ensemble{}, fmt.Errorf("validate ensemble: %w: %w", domain.ErrInvalidInput, err)
	}

	var kind fit.Kind
	for i, id := range e.Models() {
		f, err := s.fits.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return domens.Ensemble{}, domain.InvalidInputf("unknown fit %q", id)
		}
		if err != nil {
			return domens.Ensemble{}, fmt.Errorf("resolve fit %s: %w", id, err)
		}
		if i == 0 {
			kind = f.Kind()
		} else if f.Kind() != kind {
			return domens.Ensemble{}, domain.InvalidInputf(
				"fit %q is %s but the denominator %q is %s", id, f.Kind(), e.Denominator(), kind)
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return domens.Ensemble{}, fmt.Errorf("create ensemble: %w", err)
	}
	return e, nil
}

// Get retrieves an ensemble by name.
func (s *Service) Get(ctx context.Context, name string) (domens.Ensemble, error) {
	e, err := s.repo.Get(ctx, name)
	if err != nil {
		return domens.Ensemble{}, fmt.Errorf("get ensemble: %w", err)
	}
	return e, nil
}

// List returns all ensembles.
func (s *Service) List(ctx context.Context) ([]domens.Ensemble, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ensembles: %w", err)
	}
	return list, nil
}

// Delete removes an ensemble. The fits it refers to are left in place.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete ensemble: %w", err)
	}
	return nil
}
