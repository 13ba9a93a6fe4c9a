package averaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/allocation"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	"github.com/kailas-cloud/bayesavg/internal/domain/params"
	"github.com/kailas-cloud/bayesavg/internal/domain/probability"
	"github.com/kailas-cloud/bayesavg/internal/logger"
	"github.com/kailas-cloud/bayesavg/internal/metrics"
)

// Options tunes a single averaging run. Nil fields fall back to the service configuration.
type Options struct {
	PriorOdds []float64 // one per non-denominator model; nil means equal odds
	Missing   *float64
	Verbose   *bool
	Filter    *fit.Filter
	Seed      *uint64
	Source    rand.Source // wins over Seed
}

// Request averages fits held in memory. Fits[0] is the denominator model.
type Request struct {
	Fits         []fit.Fit
	BayesFactors []float64 // aligned with Fits, relative to Fits[0]
	Options      Options
}

// ModelWeight reports how one model contributed to the pooled posterior.
type ModelWeight struct {
	Model                string
	PriorProbability     float64
	PosteriorProbability float64 // renormalized when another model was dropped
	Draws                int
	Dropped              bool
}

// Result is the pooled posterior with its per-model weights.
type Result struct {
	Posterior draws.Table
	Weights   []ModelWeight
	Warnings  []string
	Budget    int
}

// Service computes Bayesian model-averaged posteriors.
type Service struct {
	fits      FitReader
	ensembles EnsembleReader
	sim       Simulator
	cfg       domain.AveragingConfig
}

// New creates an averaging service. fits and ensembles may be nil when only
// WeightedPosteriors is used.
func New(fits FitReader, ensembles EnsembleReader, sim Simulator, cfg domain.AveragingConfig) *Service {
	if cfg.SimulationDraws <= 0 {
		cfg.SimulationDraws = domain.DefaultAveragingConfig().SimulationDraws
	}
	return &Service{fits: fits, ensembles: ensembles, sim: sim, cfg: cfg}
}

// AverageEnsemble loads a stored comparison set and its fits, then averages them.
// Prior odds stored with the ensemble apply unless opts overrides them.
func (s *Service) AverageEnsemble(ctx context.Context, name string, opts Options) (Result, error) {
	if s.ensembles == nil || s.fits == nil {
		return Result{}, fmt.Errorf("averaging service has no storage configured")
	}
	ctx = logger.WithFields(ctx, zap.String("ensemble", name))
	e, err := s.ensembles.Get(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("get ensemble: %w", err)
	}
	fits := make([]fit.Fit, len(e.Models()))
	for i, id := range e.Models() {
		if fits[i], err = s.fits.Get(ctx, id); err != nil {
			return Result{}, fmt.Errorf("get fit %q: %w", id, err)
		}
	}
	if opts.PriorOdds == nil {
		opts.PriorOdds = e.PriorOdds()
	}
	return s.WeightedPosteriors(ctx, Request{Fits: fits, BayesFactors: e.BayesFactors(), Options: opts})
}

// WeightedPosteriors pools the fits' posterior draws, each model contributing in
// proportion to its posterior model probability.
func (s *Service) WeightedPosteriors(ctx context.Context, req Request) (Result, error) {
	res, err := s.weightedPosteriors(ctx, req)

	kind := "unknown"
	if len(req.Fits) > 0 {
		kind = string(req.Fits[0].Kind())
	}
	if err != nil {
		metrics.AveragingRunsTotal.WithLabelValues(kind, "error").Inc()
		return Result{}, err
	}
	metrics.AveragingRunsTotal.WithLabelValues(kind, "ok").Inc()
	metrics.PooledDraws.Observe(float64(res.Posterior.NumRows()))
	return res, nil
}

func (s *Service) weightedPosteriors(ctx context.Context, req Request) (Result, error) {
	log := logger.FromContext(ctx)

	kind, err := s.validate(req)
	if err != nil {
		return Result{}, err
	}
	opts := s.resolve(req.Options)

	prior, posterior, err := probability.Compute(req.BayesFactors, req.Options.PriorOdds)
	if err != nil {
		return Result{}, fmt.Errorf("model probabilities: %w", err)
	}
	total, err := s.plan(kind, req.Fits)
	if err != nil {
		return Result{}, fmt.Errorf("sample budget: %w", err)
	}

	tables := make([]draws.Table, 0, len(req.Fits))
	ids := make([]string, 0, len(req.Fits))
	dropped := -1
	var dropErr error
	for i, f := range req.Fits {
		tbl, err := s.extract(ctx, f, opts.filter, opts.src)
		if err == nil {
			tables = append(tables, tbl)
			ids = append(ids, f.ID())
			continue
		}
		var unsamplable *domain.UnsamplableModelError
		switch {
		case errors.As(err, &unsamplable) && i == 0:
			dropped, dropErr = i, err
		case errors.As(err, &unsamplable):
			return Result{}, fmt.Errorf("model %q is not the denominator: %w", f.ID(), err)
		case f.Kind() == fit.KindSimulated:
			return Result{}, &domain.SimulationError{Model: f.ID(), Err: err}
		default:
			return Result{}, fmt.Errorf("extract draws for model %q: %w", f.ID(), err)
		}
	}

	weights := posterior
	var warnings []string
	if dropped >= 0 {
		if len(req.Fits) == 1 {
			return Result{}, fmt.Errorf("no models left to average: %w", dropErr)
		}
		if weights, err = posterior.Drop(dropped); err != nil {
			return Result{}, fmt.Errorf("renormalize: %w", err)
		}
		id := req.Fits[dropped].ID()
		warnings = append(warnings, fmt.Sprintf(
			"model %q could not be simulated (intercept-only) and was dropped; "+
				"its posterior probability was %.4f and the remaining models were renormalized",
			id, posterior[dropped]))
		metrics.ModelsDroppedTotal.WithLabelValues("unsamplable").Inc()
		if opts.verbose {
			log.Warn("Model dropped from averaging",
				zap.String("model", id),
				zap.Float64("posterior_probability", posterior[dropped]),
				zap.Error(dropErr),
			)
		}
	}

	alloc, err := allocation.Allocate(weights, total)
	if err != nil {
		return Result{}, fmt.Errorf("allocate draws: %w", err)
	}
	rec := params.Reconcile(tables)
	pooled, err := resample(ids, tables, alloc, rec.Union, opts.missing, opts.src)
	if err != nil {
		return Result{}, fmt.Errorf("resample: %w", err)
	}

	res := Result{
		Posterior: pooled,
		Weights:   make([]ModelWeight, len(req.Fits)),
		Warnings:  warnings,
		Budget:    total,
	}
	k := 0
	for i, f := range req.Fits {
		w := ModelWeight{Model: f.ID(), PriorProbability: prior[i], PosteriorProbability: posterior[i]}
		if i == dropped {
			w.Dropped = true
		} else {
			w.PosteriorProbability = weights[k]
			w.Draws = alloc[k]
			k++
		}
		res.Weights[i] = w
	}

	if opts.verbose {
		log.Debug("Averaging completed",
			zap.String("kind", string(kind)),
			zap.Int("models", len(req.Fits)),
			zap.Int("budget", total),
			zap.Int("rows", pooled.NumRows()),
			zap.Int("parameters", pooled.NumColumns()),
		)
	}
	return res, nil
}

// validate checks the request shape and returns the shared fit kind.
func (s *Service) validate(req Request) (fit.Kind, error) {
	if len(req.Fits) == 0 {
		return "", domain.InvalidInputf("at least one model is required")
	}
	if s.cfg.MaxModels > 0 && len(req.Fits) > s.cfg.MaxModels {
		return "", domain.InvalidInputf("too many models: %d (max %d)", len(req.Fits), s.cfg.MaxModels)
	}
	if len(req.BayesFactors) != len(req.Fits) {
		return "", domain.InvalidInputf("got %d Bayes factors for %d models", len(req.BayesFactors), len(req.Fits))
	}
	if req.BayesFactors[0] != 1 {
		return "", domain.InvalidInputf("denominator Bayes factor must be 1, got %v", req.BayesFactors[0])
	}
	kind := req.Fits[0].Kind()
	seen := make(map[string]bool, len(req.Fits))
	for _, f := range req.Fits {
		if f.Kind() != kind {
			return "", domain.InvalidInputf("models must share one kind: %q is %s, %q is %s",
				req.Fits[0].ID(), kind, f.ID(), f.Kind())
		}
		if seen[f.ID()] {
			return "", domain.InvalidInputf("duplicate model %q", f.ID())
		}
		seen[f.ID()] = true
	}
	return kind, nil
}

type resolved struct {
	missing float64
	verbose bool
	filter  fit.Filter
	src     rand.Source
}

func (s *Service) resolve(o Options) resolved {
	r := resolved{
		missing: s.cfg.Missing,
		verbose: s.cfg.Verbose,
		filter:  fit.DefaultFilter(),
	}
	if o.Missing != nil {
		r.missing = *o.Missing
	}
	if o.Verbose != nil {
		r.verbose = *o.Verbose
	}
	if o.Filter != nil {
		r.filter = *o.Filter
	}
	switch {
	case o.Source != nil:
		r.src = o.Source
	case o.Seed != nil:
		r.src = rand.NewPCG(*o.Seed, *o.Seed)
	default:
		r.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return r
}
