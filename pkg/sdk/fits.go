package bayesavg

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// FitService manages stored fits.
type FitService struct {
	svc fitUseCase
	obs *observer
}

// Create validates and stores a model. An empty ID is replaced by a generated UUID.
func (s *FitService) Create(ctx context.Context, m Model) (_ FitInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("fit.create", start, err) }()

	var f fit.Fit
	switch m.Kind {
	case KindSampled:
		tbl, terr := drawTable(m)
		if terr != nil {
			return FitInfo{}, fmt.Errorf("create fit: %w", terr)
		}
		f, err = s.svc.CreateSampled(ctx, m.ID, toInternalParams(m.Parameters), tbl, toInternalAlgorithm(m.Algorithm))
	case KindSimulated:
		f, err = s.svc.CreateSimulated(ctx, m.ID, toInternalParams(m.Parameters), m.Estimates, m.Covariance)
	default:
		err = fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, m.Kind)
	}
	if err != nil {
		return FitInfo{}, fmt.Errorf("create fit: %w", err)
	}
	return fromInternalFit(f), nil
}

// Get retrieves fit metadata by ID.
func (s *FitService) Get(ctx context.Context, id string) (_ FitInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("fit.get", start, err) }()

	f, err := s.svc.Get(ctx, id)
	if err != nil {
		return FitInfo{}, fmt.Errorf("get fit: %w", err)
	}
	return fromInternalFit(f), nil
}

// List returns all stored fits, oldest first.
func (s *FitService) List(ctx context.Context) (_ []FitInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("fit.list", start, err) }()

	fits, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fits: %w", err)
	}
	out := make([]FitInfo, len(fits))
	for i, f := range fits {
		out[i] = fromInternalFit(f)
	}
	return out, nil
}

// Delete removes a fit and its draws.
func (s *FitService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("fit.delete", start, err) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete fit: %w", err)
	}
	return nil
}
