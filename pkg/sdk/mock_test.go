package bayesavg

import (
	"context"

	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
)

// --- fitUseCase mock ---

type mockFitUC struct {
	createSampledFn func(
		ctx context.Context, id string, params []fit.Parameter, tbl draws.Table, algo budget.Algorithm,
	) (fit.Fit, error)
	createSimulatedFn func(
		ctx context.Context, id string, params []fit.Parameter, est []float64, cov [][]float64,
	) (fit.Fit, error)
	getFn    func(ctx context.Context, id string) (fit.Fit, error)
	listFn   func(ctx context.Context) ([]fit.Fit, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockFitUC) CreateSampled(
	ctx context.Context, id string, params []fit.Parameter, tbl draws.Table, algo budget.Algorithm,
) (fit.Fit, error) {
	return m.createSampledFn(ctx, id, params, tbl, algo)
}

func (m *mockFitUC) CreateSimulated(
	ctx context.Context, id string, params []fit.Parameter, est []float64, cov [][]float64,
) (fit.Fit, error) {
	return m.createSimulatedFn(ctx, id, params, est, cov)
}

func (m *mockFitUC) Get(ctx context.Context, id string) (fit.Fit, error) {
	return m.getFn(ctx, id)
}

func (m *mockFitUC) List(ctx context.Context) ([]fit.Fit, error) {
	return m.listFn(ctx)
}

func (m *mockFitUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- ensembleUseCase mock ---

type mockEnsembleUC struct {
	createFn func(ctx context.Context, name string, models []string, bf, odds []float64) (domens.Ensemble, error)
	getFn    func(ctx context.Context, name string) (domens.Ensemble, error)
	listFn   func(ctx context.Context) ([]domens.Ensemble, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockEnsembleUC) Create(
	ctx context.Context, name string, models []string, bf, odds []float64,
) (domens.Ensemble, error) {
	return m.createFn(ctx, name, models, bf, odds)
}

func (m *mockEnsembleUC) Get(ctx context.Context, name string) (domens.Ensemble, error) {
	return m.getFn(ctx, name)
}

func (m *mockEnsembleUC) List(ctx context.Context) ([]domens.Ensemble, error) {
	return m.listFn(ctx)
}

func (m *mockEnsembleUC) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

// --- averagingUseCase mock ---

type mockAveragingUC struct {
	weightedFn func(ctx context.Context, req averaginguc.Request) (averaginguc.Result, error)
	ensembleFn func(ctx context.Context, name string, opts averaginguc.Options) (averaginguc.Result, error)
}

func (m *mockAveragingUC) WeightedPosteriors(
	ctx context.Context, req averaginguc.Request,
) (averaginguc.Result, error) {
	return m.weightedFn(ctx, req)
}

func (m *mockAveragingUC) AverageEnsemble(
	ctx context.Context, name string, opts averaginguc.Options,
) (averaginguc.Result, error) {
	return m.ensembleFn(ctx, name, opts)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}
