package fit

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// interceptNames are the parameter names engines use for the baseline term.
var interceptNames = map[string]bool{
	"(Intercept)": true,
	"Intercept":   true,
	"b_Intercept": true,
	"mu":          true,
}

// Kind is the closed set of fitted-model representations.
type Kind string

const (
	// KindSampled holds a full posterior draw table produced by an MCMC sampler.
	KindSampled Kind = "sampled"
	// KindSimulated holds a Gaussian posterior approximation; draws are simulated on demand.
	KindSimulated Kind = "simulated"
)

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	return k == KindSampled || k == KindSimulated
}

// Role distinguishes population-level from group-level parameters.
type Role string

const (
	// RoleFixed marks a population-level (fixed) effect.
	RoleFixed Role = "fixed"
	// RoleRandom marks a group-level (random) effect.
	RoleRandom Role = "random"
)

// Component names the model part a parameter belongs to.
type Component string

const (
	// ComponentConditional is the main (count/location) model.
	ComponentConditional Component = "conditional"
	// ComponentZeroInflated is the zero-inflation model.
	ComponentZeroInflated Component = "zero_inflated"
	// ComponentAll matches every component (filters only).
	ComponentAll Component = "all"
)

// Parameter describes one column of a model's posterior.
type Parameter struct {
	Name      string
	Role      Role
	Component Component
}

// Fit is a fitted model aggregate (immutable value object).
type Fit struct {
	id         string
	kind       Kind
	params     []Parameter
	draws      draws.Table
	algorithm  budget.Algorithm
	estimates  []float64
	covariance [][]float64
	createdAt  int64
}

// NewSampled validates and creates a fit that carries its own posterior draws.
// The table columns must be exactly the parameter names.
func NewSampled(id string, params []Parameter, tbl draws.Table, algo budget.Algorithm) (Fit, error) {
	if err := validateID(id); err != nil {
		return Fit{}, err
	}
	params, err := normalizeParams(params)
	if err != nil {
		return Fit{}, err
	}
	if err := algo.Validate(); err != nil {
		return Fit{}, fmt.Errorf("algorithm: %w", err)
	}
	if tbl.NumColumns() != len(params) {
		return Fit{}, fmt.Errorf("draw table has %d columns for %d parameters", tbl.NumColumns(), len(params))
	}
	for _, p := range params {
		if !tbl.Has(p.Name) {
			return Fit{}, fmt.Errorf("draw table has no column for parameter %q", p.Name)
		}
	}
	// Thinned tables may hold more rows than the algorithm yields, never fewer.
	if n := tbl.NumRows(); n < algo.Samples() {
		return Fit{}, fmt.Errorf("draw table has %d rows, algorithm yields %d", n, algo.Samples())
	}
	return Fit{
		id:        id,
		kind:      KindSampled,
		params:    params,
		draws:     tbl,
		algorithm: algo,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// NewSimulated validates and creates a fit described by point estimates and their covariance.
func NewSimulated(id string, params []Parameter, estimates []float64, covariance [][]float64) (Fit, error) {
	if err := validateID(id); err != nil {
		return Fit{}, err
	}
	params, err := normalizeParams(params)
	if err != nil {
		return Fit{}, err
	}
	if len(estimates) != len(params) {
		return Fit{}, fmt.Errorf("got %d estimates for %d parameters", len(estimates), len(params))
	}
	for i, e := range estimates {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return Fit{}, fmt.Errorf("estimate %d is not finite", i)
		}
	}
	if err := validateCovariance(covariance, len(params)); err != nil {
		return Fit{}, err
	}
	return Fit{
		id:         id,
		kind:       KindSimulated,
		params:     params,
		estimates:  append([]float64(nil), estimates...),
		covariance: cloneMatrix(covariance),
		createdAt:  time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Fit without validation (storage hydration).
func Reconstruct(
	id string, kind Kind, params []Parameter,
	tbl draws.Table, algo budget.Algorithm,
	estimates []float64, covariance [][]float64, createdAt int64,
) Fit {
	return Fit{
		id: id, kind: kind, params: params, draws: tbl, algorithm: algo,
		estimates: estimates, covariance: covariance, createdAt: createdAt,
	}
}

// ID returns the fit identifier.
func (f Fit) ID() string { return f.id }

// Kind returns the model representation.
func (f Fit) Kind() Kind { return f.kind }

// Parameters returns the parameter descriptors.
func (f Fit) Parameters() []Parameter { return f.params }

// Draws returns the stored posterior draws (sampled fits only).
func (f Fit) Draws() draws.Table { return f.draws }

// Algorithm returns the sampler configuration (sampled fits only).
func (f Fit) Algorithm() budget.Algorithm { return f.algorithm }

// Estimates returns the posterior means (simulated fits only).
func (f Fit) Estimates() []float64 { return f.estimates }

// Covariance returns the posterior covariance (simulated fits only).
func (f Fit) Covariance() [][]float64 { return f.covariance }

// CreatedAt returns the creation timestamp (unix millis).
func (f Fit) CreatedAt() int64 { return f.createdAt }

// IsInterceptOnly reports whether the conditional fixed effects consist of an intercept and nothing else.
func (f Fit) IsInterceptOnly() bool {
	intercept := false
	for _, p := range f.params {
		if p.Role != RoleFixed || p.Component != ComponentConditional {
			continue
		}
		if !interceptNames[p.Name] {
			return false
		}
		intercept = true
	}
	return intercept
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("fit ID is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("fit ID too long (max 128)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("fit ID must be alphanumeric with dots, underscores and hyphens")
	}
	return nil
}

// normalizeParams fills default role/component and rejects duplicates.
func normalizeParams(params []Parameter) ([]Parameter, error) {
	out := make([]Parameter, len(params))
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter %d has an empty name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate parameter name: %s", p.Name)
		}
		seen[p.Name] = true
		if p.Role == "" {
			p.Role = RoleFixed
		}
		if p.Role != RoleFixed && p.Role != RoleRandom {
			return nil, fmt.Errorf("parameter %q has invalid role %q", p.Name, p.Role)
		}
		if p.Component == "" {
			p.Component = ComponentConditional
		}
		if p.Component != ComponentConditional && p.Component != ComponentZeroInflated {
			return nil, fmt.Errorf("parameter %q has invalid component %q", p.Name, p.Component)
		}
		out[i] = p
	}
	return out, nil
}

func validateCovariance(cov [][]float64, n int) error {
	if len(cov) != n {
		return fmt.Errorf("covariance has %d rows, want %d", len(cov), n)
	}
	for i, row := range cov {
		if len(row) != n {
			return fmt.Errorf("covariance row %d has %d entries, want %d", i, len(row), n)
		}
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if math.Abs(cov[i][j]-cov[j][i]) > 1e-9*(1+math.Abs(cov[i][j])) {
				return fmt.Errorf("covariance is not symmetric at (%d, %d)", i, j)
			}
		}
	}
	return nil
}

func cloneMatrix(m [][]float64) [][]float64 {
	c := make([][]float64, len(m))
	for i, r := range m {
		c[i] = append([]float64(nil), r...)
	}
	return c
}
