package bayesavg

import "time"

// Kind is the representation of a fitted model.
type Kind string

// Kind constants.
const (
	// KindSampled models carry MCMC draws.
	KindSampled Kind = "sampled"
	// KindSimulated models carry a Gaussian approximation that is simulated on demand.
	KindSimulated Kind = "simulated"
)

// Role distinguishes population-level from group-level parameters.
type Role string

// Role constants.
const (
	RoleFixed  Role = "fixed"
	RoleRandom Role = "random"
)

// Component names the model part a parameter belongs to.
type Component string

// Component constants. ComponentAll is only meaningful in filters.
const (
	ComponentConditional  Component = "conditional"
	ComponentZeroInflated Component = "zero_inflated"
	ComponentAll          Component = "all"
)

// Effects selects parameters by role when extracting draws.
type Effects string

// Effects constants.
const (
	EffectsFixed Effects = "fixed"
	EffectsAll   Effects = "all"
)

// Parameter describes one column of a model's posterior.
// Empty Role and Component default to fixed and conditional.
type Parameter struct {
	Name      string
	Role      Role
	Component Component
}

// Algorithm describes the sampler run behind a sampled model.
type Algorithm struct {
	Chains     int
	Iterations int // per chain, warm-up included
	Warmup     int
}

// Model is a fitted model. Sampled models set Draws (one row per draw, one
// value per parameter) and Algorithm; simulated models set Estimates and Covariance.
type Model struct {
	ID         string
	Kind       Kind
	Parameters []Parameter
	Draws      [][]float64
	Algorithm  Algorithm
	Estimates  []float64
	Covariance [][]float64
}

// SampledModel builds a model from posterior draws.
func SampledModel(id string, params []Parameter, draws [][]float64, algo Algorithm) Model {
	return Model{ID: id, Kind: KindSampled, Parameters: params, Draws: draws, Algorithm: algo}
}

// SimulatedModel builds a model from point estimates and their covariance.
func SimulatedModel(id string, params []Parameter, estimates []float64, covariance [][]float64) Model {
	return Model{ID: id, Kind: KindSimulated, Parameters: params, Estimates: estimates, Covariance: covariance}
}

// FitInfo is stored fit metadata. Draws are not included.
type FitInfo struct {
	ID         string
	Kind       Kind
	Parameters []Parameter
	Algorithm  Algorithm
	DrawRows   int
	CreatedAt  int64
}

// EnsembleInfo is a stored comparison set.
type EnsembleInfo struct {
	Name         string
	Models       []string
	BayesFactors []float64
	PriorOdds    []float64
	CreatedAt    int64
}

// Posterior is the pooled sample: rows are draws, columns are parameters.
type Posterior struct {
	Columns []string
	Rows    [][]float64
}

// Column returns a copy of the named column, or false if it is absent.
func (p Posterior) Column(name string) ([]float64, bool) {
	for j, c := range p.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(p.Rows))
		for i, r := range p.Rows {
			out[i] = r[j]
		}
		return out, true
	}
	return nil, false
}

// Weight reports one model's share of the pooled posterior.
type Weight struct {
	Model                string
	PriorProbability     float64
	PosteriorProbability float64
	Draws                int
	Dropped              bool
}

// Result is the outcome of an averaging run.
type Result struct {
	Posterior Posterior
	Weights   []Weight
	Warnings  []string
	Budget    int
}

// HealthStatus is the aggregated health: "ok", "degraded" or "error" (every check failed).
type HealthStatus struct {
	Status string
	Checks map[string]ComponentHealth // keyed by "database", "simulation"
}

// ComponentHealth is the result of one component check.
type ComponentHealth struct {
	Status  string // "ok" or "error"
	Latency time.Duration
	Error   string
}
