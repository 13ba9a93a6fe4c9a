package chi

import (
	"fmt"

	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
)

type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeUnauthorized      errorCode = "unauthorized"
	codeNotFound          errorCode = "not_found"
	codeAlreadyExists     errorCode = "already_exists"
	codeInsufficientDraws errorCode = "insufficient_draws"
	codeUnsamplableModel  errorCode = "unsamplable_model"
	codeSimulationFailed  errorCode = "simulation_failed"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type parameterDTO struct {
	Name      string `json:"name" validate:"required,max=256"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=fixed random"`
	Component string `json:"component,omitempty" validate:"omitempty,oneof=conditional zero_inflated"`
}

type algorithmDTO struct {
	Chains     int `json:"chains" validate:"min=1"`
	Iterations int `json:"iterations" validate:"min=1"`
	Warmup     int `json:"warmup" validate:"min=0,ltfield=Iterations"`
}

// fitRequest registers one fit. Sampled fits carry draw rows aligned with
// Parameters; simulated fits carry estimates and covariance.
type fitRequest struct {
	ID         string         `json:"id,omitempty" validate:"omitempty,max=128"`
	Kind       string         `json:"kind" validate:"required,oneof=sampled simulated"`
	Parameters []parameterDTO `json:"parameters" validate:"required,min=1,dive"`
	Algorithm  *algorithmDTO  `json:"algorithm,omitempty" validate:"required_if=Kind sampled"`
	Draws      [][]float64    `json:"draws,omitempty" validate:"required_if=Kind sampled"`
	Estimates  []float64      `json:"estimates,omitempty" validate:"required_if=Kind simulated"`
	Covariance [][]float64    `json:"covariance,omitempty" validate:"required_if=Kind simulated"`
}

type fitResponse struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Parameters []parameterDTO `json:"parameters"`
	Algorithm  *algorithmDTO  `json:"algorithm,omitempty"`
	DrawRows   int            `json:"draw_rows,omitempty"`
	Estimates  []float64      `json:"estimates,omitempty"`
	Covariance [][]float64    `json:"covariance,omitempty"`
	CreatedAt  int64          `json:"created_at"`
}

type ensembleRequest struct {
	Name         string    `json:"name" validate:"required,max=64"`
	Models       []string  `json:"models" validate:"required,min=1,dive,required"`
	BayesFactors []float64 `json:"bayes_factors" validate:"required,min=1,dive,gt=0"`
	PriorOdds    []float64 `json:"prior_odds,omitempty" validate:"omitempty,dive,gt=0"`
}

type ensembleResponse struct {
	Name         string    `json:"name"`
	Models       []string  `json:"models"`
	BayesFactors []float64 `json:"bayes_factors"`
	PriorOdds    []float64 `json:"prior_odds,omitempty"`
	CreatedAt    int64     `json:"created_at"`
}

type averageOptions struct {
	PriorOdds  []float64 `json:"prior_odds,omitempty" validate:"omitempty,dive,gt=0"`
	Missing    *float64  `json:"missing,omitempty"`
	Verbose    *bool     `json:"verbose,omitempty"`
	Seed       *uint64   `json:"seed,omitempty"`
	Effects    string    `json:"effects,omitempty" validate:"omitempty,oneof=fixed all"`
	Component  string    `json:"component,omitempty" validate:"omitempty,oneof=conditional zero_inflated all"`
	Parameters []string  `json:"parameters,omitempty" validate:"omitempty,dive,required"`
}

// averageRequest averages inline fits without storing them. Fits[0] is the denominator.
type averageRequest struct {
	Fits         []fitRequest   `json:"fits" validate:"required,min=1,dive"`
	BayesFactors []float64      `json:"bayes_factors" validate:"required,min=1,dive,gt=0"`
	Options      averageOptions `json:"options"`
}

type weightDTO struct {
	Model                string  `json:"model"`
	PriorProbability     float64 `json:"prior_probability"`
	PosteriorProbability float64 `json:"posterior_probability"`
	Draws                int     `json:"draws"`
	Dropped              bool    `json:"dropped,omitempty"`
}

type averageResponse struct {
	Columns  []string    `json:"columns"`
	Rows     [][]float64 `json:"rows"`
	Weights  []weightDTO `json:"weights"`
	Warnings []string    `json:"warnings"`
	Budget   int         `json:"budget"`
}

type checkDTO struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

type healthResponse struct {
	Status string              `json:"status"`
	Checks map[string]checkDTO `json:"checks"`
}

type cursorList[T any] struct {
	Items      []T     `json:"items"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func paramsFromDTO(in []parameterDTO) []domfit.Parameter {
	out := make([]domfit.Parameter, len(in))
	for i, p := range in {
		out[i] = domfit.Parameter{
			Name:      p.Name,
			Role:      domfit.Role(p.Role),
			Component: domfit.Component(p.Component),
		}
	}
	return out
}

func paramsToDTO(in []domfit.Parameter) []parameterDTO {
	out := make([]parameterDTO, len(in))
	for i, p := range in {
		out[i] = parameterDTO{Name: p.Name, Role: string(p.Role), Component: string(p.Component)}
	}
	return out
}

// sampledParts converts a sampled fit request into its table and algorithm.
func sampledParts(req fitRequest) ([]domfit.Parameter, draws.Table, budget.Algorithm, error) {
	params := paramsFromDTO(req.Parameters)
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	tbl, err := draws.New(names, req.Draws)
	if err != nil {
		return nil, draws.Table{}, budget.Algorithm{}, fmt.Errorf("draws: %w", err)
	}
	algo := budget.Algorithm{
		Chains:     req.Algorithm.Chains,
		Iterations: req.Algorithm.Iterations,
		Warmup:     req.Algorithm.Warmup,
	}
	return params, tbl, algo, nil
}

// inlineFit builds an unsaved fit. Inline fits without an ID are named by position.
func inlineFit(req fitRequest, pos int) (domfit.Fit, error) {
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("model_%d", pos+1)
	}
	if domfit.Kind(req.Kind) == domfit.KindSampled {
		params, tbl, algo, err := sampledParts(req)
		if err != nil {
			return domfit.Fit{}, err
		}
		return domfit.NewSampled(id, params, tbl, algo)
	}
	return domfit.NewSimulated(id, paramsFromDTO(req.Parameters), req.Estimates, req.Covariance)
}

func fitToDTO(f domfit.Fit) fitResponse {
	resp := fitResponse{
		ID:         f.ID(),
		Kind:       string(f.Kind()),
		Parameters: paramsToDTO(f.Parameters()),
		CreatedAt:  f.CreatedAt(),
	}
	switch f.Kind() {
	case domfit.KindSampled:
		a := f.Algorithm()
		resp.Algorithm = &algorithmDTO{Chains: a.Chains, Iterations: a.Iterations, Warmup: a.Warmup}
		resp.DrawRows = f.Draws().NumRows()
	case domfit.KindSimulated:
		resp.Estimates = f.Estimates()
		resp.Covariance = f.Covariance()
	}
	return resp
}

func ensembleToDTO(e domens.Ensemble) ensembleResponse {
	return ensembleResponse{
		Name:         e.Name(),
		Models:       e.Models(),
		BayesFactors: e.BayesFactors(),
		PriorOdds:    e.PriorOdds(),
		CreatedAt:    e.CreatedAt(),
	}
}

func optionsFromDTO(o averageOptions) (averaginguc.Options, error) {
	opts := averaginguc.Options{
		PriorOdds: o.PriorOdds,
		Missing:   o.Missing,
		Verbose:   o.Verbose,
		Seed:      o.Seed,
	}
	if o.Effects != "" || o.Component != "" || len(o.Parameters) > 0 {
		f, err := domfit.NewFilter(domfit.Effects(o.Effects), domfit.Component(o.Component), o.Parameters)
		if err != nil {
			return averaginguc.Options{}, err
		}
		opts.Filter = &f
	}
	return opts, nil
}

func resultToDTO(res averaginguc.Result) averageResponse {
	tbl := res.Posterior
	rows := make([][]float64, tbl.NumRows())
	for i := range rows {
		rows[i] = tbl.Row(i)
	}
	weights := make([]weightDTO, len(res.Weights))
	for i, w := range res.Weights {
		weights[i] = weightDTO{
			Model:                w.Model,
			PriorProbability:     w.PriorProbability,
			PosteriorProbability: w.PosteriorProbability,
			Draws:                w.Draws,
			Dropped:              w.Dropped,
		}
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return averageResponse{
		Columns:  tbl.Columns(),
		Rows:     rows,
		Weights:  weights,
		Warnings: warnings,
		Budget:   res.Budget,
	}
}

// paginate slices items after the cursor key. limit <= 0 uses the default page size.
func paginate[T any](items []T, key func(T) string, cursor string, limit int) cursorList[T] {
	if limit <= 0 {
		limit = defaultPageSize
	}
	start := 0
	if cursor != "" {
		for i, item := range items {
			if key(item) == cursor {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(items))
	page := items[start:end]

	resp := cursorList[T]{Items: page, HasMore: end < len(items)}
	if resp.HasMore && len(page) > 0 {
		c := key(page[len(page)-1])
		resp.NextCursor = &c
	}
	return resp
}

func healthToResponse(r healthuc.Report) healthResponse {
	checks := make(map[string]checkDTO, len(r.Checks))
	for name, c := range r.Checks {
		checks[name] = checkDTO{
			Status:    string(c.Result),
			LatencyMS: float64(c.Latency.Microseconds()) / 1000,
			Error:     c.Error,
		}
	}
	return healthResponse{Status: string(r.Status), Checks: checks}
}
