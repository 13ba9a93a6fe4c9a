package bayesavg

import (
	"fmt"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
)

func toInternalParams(in []Parameter) []fit.Parameter {
	out := make([]fit.Parameter, len(in))
	for i, p := range in {
		out[i] = fit.Parameter{Name: p.Name, Role: fit.Role(p.Role), Component: fit.Component(p.Component)}
	}
	return out
}

func fromInternalParams(in []fit.Parameter) []Parameter {
	out := make([]Parameter, len(in))
	for i, p := range in {
		out[i] = Parameter{Name: p.Name, Role: Role(p.Role), Component: Component(p.Component)}
	}
	return out
}

func toInternalAlgorithm(a Algorithm) budget.Algorithm {
	return budget.Algorithm{Chains: a.Chains, Iterations: a.Iterations, Warmup: a.Warmup}
}

// drawTable aligns the model's draw rows with its parameter names.
func drawTable(m Model) (draws.Table, error) {
	names := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		names[i] = p.Name
	}
	tbl, err := draws.New(names, m.Draws)
	if err != nil {
		return draws.Table{}, fmt.Errorf("%w: model %q draws: %w", domain.ErrInvalidInput, m.ID, err)
	}
	return tbl, nil
}

// toInternalFit validates a model without storing it.
func toInternalFit(m Model) (fit.Fit, error) {
	var (
		f   fit.Fit
		err error
	)
	switch m.Kind {
	case KindSampled:
		tbl, terr := drawTable(m)
		if terr != nil {
			return fit.Fit{}, terr
		}
		f, err = fit.NewSampled(m.ID, toInternalParams(m.Parameters), tbl, toInternalAlgorithm(m.Algorithm))
	case KindSimulated:
		f, err = fit.NewSimulated(m.ID, toInternalParams(m.Parameters), m.Estimates, m.Covariance)
	default:
		return fit.Fit{}, fmt.Errorf("%w: model %q has unknown kind %q", domain.ErrInvalidInput, m.ID, m.Kind)
	}
	if err != nil {
		return fit.Fit{}, fmt.Errorf("%w: model %q: %w", domain.ErrInvalidInput, m.ID, err)
	}
	return f, nil
}

func fromInternalFit(f fit.Fit) FitInfo {
	info := FitInfo{
		ID:         f.ID(),
		Kind:       Kind(f.Kind()),
		Parameters: fromInternalParams(f.Parameters()),
		CreatedAt:  f.CreatedAt(),
	}
	if f.Kind() == fit.KindSampled {
		a := f.Algorithm()
		info.Algorithm = Algorithm{Chains: a.Chains, Iterations: a.Iterations, Warmup: a.Warmup}
		info.DrawRows = f.Draws().NumRows()
	}
	return info
}

func fromInternalEnsemble(e domens.Ensemble) EnsembleInfo {
	return EnsembleInfo{
		Name:         e.Name(),
		Models:       e.Models(),
		BayesFactors: e.BayesFactors(),
		PriorOdds:    e.PriorOdds(),
		CreatedAt:    e.CreatedAt(),
	}
}

func toInternalOptions(c *averageConfig) (averaginguc.Options, error) {
	opts := averaginguc.Options{
		PriorOdds: c.priorOdds,
		Missing:   c.missing,
		Verbose:   c.verbose,
		Seed:      c.seed,
		Source:    c.source,
	}
	if c.effects != "" || c.component != "" || len(c.parameters) > 0 {
		f, err := fit.NewFilter(fit.Effects(c.effects), fit.Component(c.component), c.parameters)
		if err != nil {
			return averaginguc.Options{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		opts.Filter = &f
	}
	return opts, nil
}

func fromInternalResult(res averaginguc.Result) Result {
	tbl := res.Posterior
	rows := make([][]float64, tbl.NumRows())
	for i := range rows {
		rows[i] = append([]float64(nil), tbl.Row(i)...)
	}
	weights := make([]Weight, len(res.Weights))
	for i, w := range res.Weights {
		weights[i] = Weight{
			Model:                w.Model,
			PriorProbability:     w.PriorProbability,
			PosteriorProbability: w.PosteriorProbability,
			Draws:                w.Draws,
			Dropped:              w.Dropped,
		}
	}
	return Result{
		Posterior: Posterior{Columns: append([]string(nil), tbl.Columns()...), Rows: rows},
		Weights:   weights,
		Warnings:  res.Warnings,
		Budget:    res.Budget,
	}
}
