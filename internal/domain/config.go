package domain

// KeyPrefix is the default storage key namespace.
const KeyPrefix = "bayesavg:"

// AveragingConfig holds the defaults applied to every averaging run.
type AveragingConfig struct {
	SimulationDraws int     // fixed budget for simulation-based models
	Missing         float64 // fill value for parameters a model lacks
	MaxModels       int
	Verbose         bool
}

// DefaultAveragingConfig returns the defaults used when nothing is configured.
func DefaultAveragingConfig() AveragingConfig {
	return AveragingConfig{
		SimulationDraws: 4000,
		Missing:         0,
		MaxModels:       64,
		Verbose:         true,
	}
}
