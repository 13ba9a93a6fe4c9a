package bayesavg

import (
	"log/slog"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	fitCacheSize    int
	simulationDraws int
	maxModels       int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
// Only core hash, string and sorted-set commands are used, so no modules are required.
func WithRedis(addr, password string) Option {
	return WithValkey(addr, password)
}

// WithKeyPrefix namespaces every key the client writes. Default: "bayesavg:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithFitCache keeps up to size recently used fits in memory. 0 disables the cache (default).
func WithFitCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.fitCacheSize = size
	})
}

// WithSimulationDraws sets how many draws are simulated per simulated model. Default: 4000.
func WithSimulationDraws(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.simulationDraws = n
	})
}

// WithMaxModels caps the number of models per ensemble. Default: 64.
func WithMaxModels(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxModels = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// AverageOption tunes a single averaging run.
type AverageOption func(*averageConfig)

type averageConfig struct {
	priorOdds  []float64
	missing    *float64
	verbose    *bool
	seed       *uint64
	source     rand.Source
	effects    Effects
	component  Component
	parameters []string

	simulationDraws int
}

// WithPriorOdds sets the prior odds of each non-denominator model against the denominator.
// Default: equal prior probabilities.
func WithPriorOdds(odds ...float64) AverageOption {
	return func(c *averageConfig) {
		c.priorOdds = odds
	}
}

// WithMissing sets the value filled in for parameters a model does not have. Default: 0.
func WithMissing(v float64) AverageOption {
	return func(c *averageConfig) {
		c.missing = &v
	}
}

// WithVerbose toggles warning logs. Warnings are always returned in Result.Warnings.
func WithVerbose(v bool) AverageOption {
	return func(c *averageConfig) {
		c.verbose = &v
	}
}

// WithSeed makes the run reproducible.
func WithSeed(seed uint64) AverageOption {
	return func(c *averageConfig) {
		c.seed = &seed
	}
}

// WithSource draws randomness from src. Takes precedence over WithSeed.
func WithSource(src rand.Source) AverageOption {
	return func(c *averageConfig) {
		c.source = src
	}
}

// WithEffects selects fixed (default) or all parameters.
func WithEffects(e Effects) AverageOption {
	return func(c *averageConfig) {
		c.effects = e
	}
}

// WithComponent selects the conditional (default), zero-inflated or all components.
func WithComponent(comp Component) AverageOption {
	return func(c *averageConfig) {
		c.component = comp
	}
}

// WithParameters keeps only parameters whose names match one of the regular expressions.
func WithParameters(patterns ...string) AverageOption {
	return func(c *averageConfig) {
		c.parameters = patterns
	}
}

// WithDraws sets the simulation size for in-process averaging. Default: 4000.
func WithDraws(n int) AverageOption {
	return func(c *averageConfig) {
		c.simulationDraws = n
	}
}
