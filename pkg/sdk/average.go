package bayesavg

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	"github.com/kailas-cloud/bayesavg/internal/simulation"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
)

// averagingUseCase is the internal interface for averaging runs.
type averagingUseCase interface {
	WeightedPosteriors(ctx context.Context, req averaginguc.Request) (averaginguc.Result, error)
	AverageEnsemble(ctx context.Context, name string, opts averaginguc.Options) (averaginguc.Result, error)
}

// WeightedPosteriors averages models held in memory. models[0] is the denominator
// and bayesFactors[i] is the Bayes factor of models[i] against it (bayesFactors[0] == 1).
func WeightedPosteriors(
	ctx context.Context, models []Model, bayesFactors []float64, opts ...AverageOption,
) (Result, error) {
	cfg := &averageConfig{}
	for _, o := range opts {
		o(cfg)
	}
	avgCfg := domain.DefaultAveragingConfig()
	avgCfg.Verbose = false
	if cfg.simulationDraws > 0 {
		avgCfg.SimulationDraws = cfg.simulationDraws
	}
	svc := averaginguc.New(nil, nil, simulation.NewGaussian(), avgCfg)
	return weightedPosteriors(ctx, svc, models, bayesFactors, cfg)
}

func weightedPosteriors(
	ctx context.Context, svc averagingUseCase, models []Model, bayesFactors []float64, cfg *averageConfig,
) (Result, error) {
	fits := make([]fit.Fit, len(models))
	for i, m := range models {
		f, err := toInternalFit(m)
		if err != nil {
			return Result{}, fmt.Errorf("weighted posteriors: %w", err)
		}
		fits[i] = f
	}
	opts, err := toInternalOptions(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("weighted posteriors: %w", err)
	}
	res, err := svc.WeightedPosteriors(ctx, averaginguc.Request{
		Fits:         fits,
		BayesFactors: bayesFactors,
		Options:      opts,
	})
	if err != nil {
		return Result{}, fmt.Errorf("weighted posteriors: %w", err)
	}
	return fromInternalResult(res), nil
}

// WeightedPosteriors averages in-memory models using the client's simulation settings.
func (c *Client) WeightedPosteriors(
	ctx context.Context, models []Model, bayesFactors []float64, opts ...AverageOption,
) (_ Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("average.inline", start, err) }()

	cfg := &averageConfig{}
	for _, o := range opts {
		o(cfg)
	}
	res, err := weightedPosteriors(ctx, c.avgSvc, models, bayesFactors, cfg)
	if err != nil {
		return Result{}, err
	}
	c.obs.averaged("average.inline", res)
	return res, nil
}

// Average pools the posteriors of a stored ensemble. Prior odds stored with the
// ensemble apply unless WithPriorOdds overrides them.
func (c *Client) Average(ctx context.Context, ensemble string, opts ...AverageOption) (_ Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("average.ensemble", start, err) }()

	cfg := &averageConfig{}
	for _, o := range opts {
		o(cfg)
	}
	internal, err := toInternalOptions(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("average %s: %w", ensemble, err)
	}
	res, err := c.avgSvc.AverageEnsemble(ctx, ensemble, internal)
	if err != nil {
		return Result{}, fmt.Errorf("average %s: %w", ensemble, err)
	}
	out := fromInternalResult(res)
	c.obs.averaged("average.ensemble", out)
	return out, nil
}
