package simulation

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"testing"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	"github.com/kailas-cloud/bayesavg/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAveragingMetrics()
	os.Exit(m.Run())
}

func simulatedFit(t *testing.T, id string, names []string, est []float64, cov [][]float64) fit.Fit {
	t.Helper()
	params := make([]fit.Parameter, len(names))
	for i, n := range names {
		params[i] = fit.Parameter{Name: n}
	}
	f, err := fit.NewSimulated(id, params, est, cov)
	if err != nil {
		t.Fatalf("fit.NewSimulated: %v", err)
	}
	return f
}

func TestGaussian_Simulate(t *testing.T) {
	f := simulatedFit(t, "m1", []string{"(Intercept)", "x"},
		[]float64{1, -2}, [][]float64{{0.25, 0}, {0, 0.25}})

	tbl, err := NewGaussian().Simulate(context.Background(), f, 4000, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.NumRows() != 4000 || tbl.NumColumns() != 2 {
		t.Fatalf("got %dx%d table, want 4000x2", tbl.NumRows(), tbl.NumColumns())
	}
	x, _ := tbl.Column("x")
	if m := stat.Mean(x, nil); math.Abs(m-(-2)) > 0.05 {
		t.Errorf("mean(x) = %v, want about -2", m)
	}
}

func TestGaussian_SeededIsDeterministic(t *testing.T) {
	f := simulatedFit(t, "m1", []string{"(Intercept)", "x"},
		[]float64{0, 0}, [][]float64{{1, 0.3}, {0.3, 1}})
	g := NewGaussian()

	a, err := g.Simulate(context.Background(), f, 50, rand.NewPCG(7, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := g.Simulate(context.Background(), f, 50, rand.NewPCG(7, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.NumRows() {
		ra, rb := a.Row(i), b.Row(i)
		if ra[0] != rb[0] || ra[1] != rb[1] {
			t.Fatalf("row %d differs: %v vs %v", i, ra, rb)
		}
	}
}

func TestGaussian_InterceptOnly(t *testing.T) {
	f := simulatedFit(t, "null", []string{"(Intercept)"}, []float64{0}, [][]float64{{1}})

	_, err := NewGaussian().Simulate(context.Background(), f, 10, rand.NewPCG(1, 1))
	var unsamplable *domain.UnsamplableModelError
	if !errors.As(err, &unsamplable) {
		t.Fatalf("expected UnsamplableModelError, got %v", err)
	}
	if unsamplable.Model != "null" {
		t.Errorf("Model = %q, want null", unsamplable.Model)
	}
}

func TestGaussian_NotPositiveDefinite(t *testing.T) {
	f := simulatedFit(t, "m1", []string{"(Intercept)", "x"},
		[]float64{0, 0}, [][]float64{{1, 2}, {2, 1}})

	_, err := NewGaussian().Simulate(context.Background(), f, 10, rand.NewPCG(1, 1))
	if !errors.Is(err, ErrNotPositiveDefinite) {
		t.Fatalf("expected ErrNotPositiveDefinite, got %v", err)
	}
	if errors.Is(err, domain.ErrUnsamplableModel) {
		t.Error("non-PD covariance must not be reported as unsamplable")
	}
}

func TestGaussian_RejectsSampledFit(t *testing.T) {
	tbl := draws.Reconstruct([]string{"x"}, [][]float64{{1}})
	f, err := fit.NewSampled("s", []fit.Parameter{{Name: "x"}}, tbl, budget.Algorithm{Chains: 1, Iterations: 2, Warmup: 1})
	if err != nil {
		t.Fatalf("fit.NewSampled: %v", err)
	}
	if _, err := NewGaussian().Simulate(context.Background(), f, 10, nil); err == nil {
		t.Fatal("expected error for sampled fit")
	}
}

func TestGaussian_CancelledContext(t *testing.T) {
	f := simulatedFit(t, "m1", []string{"(Intercept)", "x"},
		[]float64{0, 0}, [][]float64{{1, 0}, {0, 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGaussian().Simulate(ctx, f, 10, rand.NewPCG(1, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type stubEngine struct {
	err error
}

func (s *stubEngine) Simulate(_ context.Context, _ fit.Fit, n int, _ rand.Source) (draws.Table, error) {
	if s.err != nil {
		return draws.Table{}, s.err
	}
	return draws.Reconstruct([]string{"x"}, make([][]float64, n)), nil
}

func TestInstrumented_PassesErrorsThrough(t *testing.T) {
	f := simulatedFit(t, "m1", []string{"(Intercept)", "x"},
		[]float64{0, 0}, [][]float64{{1, 0}, {0, 1}})
	inner := &stubEngine{err: &domain.UnsamplableModelError{Model: "m1", Reason: "test"}}
	s := NewInstrumented(inner, zap.NewNop())

	_, err := s.Simulate(context.Background(), f, 10, nil)
	if !errors.Is(err, domain.ErrUnsamplableModel) {
		t.Fatalf("expected ErrUnsamplableModel, got %v", err)
	}
}

func TestInstrumented_Success(t *testing.T) {
	f := simulatedFit(t, "m1", []string{"(Intercept)", "x"},
		[]float64{0, 0}, [][]float64{{1, 0}, {0, 1}})
	s := NewInstrumented(&stubEngine{}, zap.NewNop())

	tbl, err := s.Simulate(context.Background(), f, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.NumRows() != 5 {
		t.Errorf("NumRows() = %d, want 5", tbl.NumRows())
	}
}

func TestGaussian_HealthCheck(t *testing.T) {
	if err := NewGaussian().HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() = %v", err)
	}
}
