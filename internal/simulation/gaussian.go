// Package simulation draws posterior samples for fits that only carry a Gaussian approximation.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// ErrNotPositiveDefinite is returned when a covariance matrix has no Cholesky factorization.
var ErrNotPositiveDefinite = errors.New("covariance is not positive definite")

// Gaussian simulates draws from the multivariate normal N(estimates, covariance).
type Gaussian struct{}

// NewGaussian creates a Gaussian simulation engine.
func NewGaussian() *Gaussian {
	return &Gaussian{}
}

// Simulate generates n draws for every parameter of f, consuming src.
// Intercept-only fits have nothing to compare against and yield an UnsamplableModelError.
func (g *Gaussian) Simulate(ctx context.Context, f fit.Fit, n int, src rand.Source) (draws.Table, error) {
	if f.Kind() != fit.KindSimulated {
		return draws.Table{}, fmt.Errorf("fit %q is %s, not simulated", f.ID(), f.Kind())
	}
	if f.IsInterceptOnly() {
		return draws.Table{}, &domain.UnsamplableModelError{
			Model:  f.ID(),
			Reason: "intercept-only model has no predictors to simulate",
		}
	}
	if n <= 0 {
		return draws.Table{}, fmt.Errorf("draw count must be positive, got %d", n)
	}

	params := f.Parameters()
	k := len(params)
	sigma := mat.NewSymDense(k, flatten(f.Covariance(), k))
	dist, ok := distmv.NewNormal(f.Estimates(), sigma, src)
	if !ok {
		return draws.Table{}, fmt.Errorf("fit %q: %w", f.ID(), ErrNotPositiveDefinite)
	}

	columns := make([]string, k)
	for i, p := range params {
		columns[i] = p.Name
	}
	rows := make([][]float64, n)
	for i := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return draws.Table{}, fmt.Errorf("simulate: %w", err)
			}
		}
		rows[i] = dist.Rand(nil)
	}
	return draws.Reconstruct(columns, rows), nil
}

// probe is a fixed two-parameter fit used by HealthCheck.
var probe = fit.Reconstruct("health-probe", fit.KindSimulated,
	[]fit.Parameter{
		{Name: "(Intercept)", Role: fit.RoleFixed, Component: fit.ComponentConditional},
		{Name: "x", Role: fit.RoleFixed, Component: fit.ComponentConditional},
	},
	draws.Table{}, budget.Algorithm{},
	[]float64{0, 1}, [][]float64{{1, 0.5}, {0.5, 2}}, 0,
)

// HealthCheck simulates a handful of draws from a known model.
func (g *Gaussian) HealthCheck(ctx context.Context) error {
	tbl, err := g.Simulate(ctx, probe, 8, rand.NewPCG(1, 1))
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	if tbl.NumRows() != 8 || tbl.NumColumns() != 2 {
		return fmt.Errorf("health probe: got %dx%d table", tbl.NumRows(), tbl.NumColumns())
	}
	return nil
}

func flatten(m [][]float64, k int) []float64 {
	out := make([]float64, 0, k*k)
	for _, r := range m {
		out = append(out, r...)
	}
	return out
}
