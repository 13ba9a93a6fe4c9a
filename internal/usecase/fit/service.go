package fit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// Service handles fit registration and lookup.
type Service struct {
	repo Repository
}

// New creates a fit service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateSampled validates and stores a fit that carries its own draws.
// An empty id is replaced by a generated UUID.
func (s *Service) CreateSampled(
	ctx context.Context, id string, params []domfit.Parameter, tbl draws.Table, algo budget.Algorithm,
) (domfit.Fit, error) {
	f, err := domfit.NewSampled(idOrNew(id), params, tbl, algo)
	if err != nil {
		return domfit.Fit{}, fmt.Errorf("validate fit: %w: %w", domain.ErrInvalidInput, err)
	}
	return s.store(ctx, f)
}

// CreateSimulated validates and stores a fit described by estimates and covariance.
// An empty id is replaced by a generated UUID.
func (s *Service) CreateSimulated(
	ctx context.Context, id string, params []domfit.Parameter, estimates []float64, covariance [][]float64,
) (domfit.Fit, error) {
	f, err := domfit.NewSimulated(idOrNew(id), params, estimates, covariance)
	if err != nil {
		return domfit.Fit{}, fmt.Errorf("validate fit: %w: %w", domain.ErrInvalidInput, err)
	}
	return s.store(ctx, f)
}

func (s *Service) store(ctx context.Context, f domfit.Fit) (domfit.Fit, error) {
	if err := s.repo.Create(ctx, f); err != nil {
		return domfit.Fit{}, fmt.Errorf("create fit: %w", err)
	}
	return f, nil
}

// Get retrieves a fit with its draws.
func (s *Service) Get(ctx context.Context, id string) (domfit.Fit, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return domfit.Fit{}, fmt.Errorf("get fit: %w", err)
	}
	return f, nil
}

// List returns fit metadata without draws.
func (s *Service) List(ctx context.Context) ([]domfit.Fit, error) {
	fits, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fits: %w", err)
	}
	return fits, nil
}

// Delete removes a fit and its draws.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete fit: %w", err)
	}
	return nil
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
