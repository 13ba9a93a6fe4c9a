package averaging

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// extract produces the filtered draw table of one fit.
// Sampled fits are projected; simulated fits are drawn on demand from src.
func (s *Service) extract(
	ctx context.Context, f fit.Fit, filter fit.Filter, src rand.Source,
) (draws.Table, error) {
	switch f.Kind() {
	case fit.KindSampled:
		return project(f.Draws(), f.Parameters(), filter)
	case fit.KindSimulated:
		tbl, err := s.sim.Simulate(ctx, f, s.cfg.SimulationDraws, src)
		if err != nil {
			return draws.Table{}, err //nolint:wrapcheck // classified by the caller
		}
		return project(tbl, f.Parameters(), filter)
	default:
		return draws.Table{}, domain.InvalidInputf("fit %q has unsupported kind %q", f.ID(), f.Kind())
	}
}

// plan computes the pooled sample budget for a set of fits sharing one kind.
// Sampled fits are bounded by their sampler metadata; simulated fits use the fixed simulation size.
func (s *Service) plan(kind fit.Kind, fits []fit.Fit) (int, error) {
	switch kind {
	case fit.KindSampled:
		algos := make([]budget.Algorithm, len(fits))
		for i, f := range fits {
			algos[i] = f.Algorithm()
		}
		return budget.Plan(algos) //nolint:wrapcheck // domain error
	case fit.KindSimulated:
		return budget.Fixed(s.cfg.SimulationDraws) //nolint:wrapcheck // domain error
	default:
		return 0, domain.InvalidInputf("unsupported fit kind %q", kind)
	}
}

func project(tbl draws.Table, params []fit.Parameter, filter fit.Filter) (draws.Table, error) {
	idx := filter.Select(params)
	names := make([]string, len(idx))
	for k, i := range idx {
		names[k] = params[i].Name
	}
	out, err := tbl.Select(names)
	if err != nil {
		return draws.Table{}, fmt.Errorf("project draws: %w", err)
	}
	return out, nil
}
