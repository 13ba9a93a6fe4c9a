package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/bayesavg/internal/domain"
)

// Config holds the bayesavg API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Averaging AveragingConfig `yaml:"averaging"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyMB       int `yaml:"max_body_mb"`
}

// DatabaseConfig holds Valkey/Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ClientName       string   `yaml:"client_name"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AveragingConfig holds model averaging defaults.
type AveragingConfig struct {
	SimulationDraws int     `yaml:"simulation_draws"`
	Missing         float64 `yaml:"missing"`
	MaxModels       int     `yaml:"max_models"`
	Verbose         *bool   `yaml:"verbose"` // nil = true
}

// CacheConfig holds the in-memory fit cache settings.
type CacheConfig struct {
	FitCacheSize *int `yaml:"fit_cache_size"` // nil = 256, 0 = disabled
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Domain converts the averaging section into the domain defaults.
func (a AveragingConfig) Domain() domain.AveragingConfig {
	return domain.AveragingConfig{
		SimulationDraws: a.SimulationDraws,
		Missing:         a.Missing,
		MaxModels:       a.MaxModels,
		Verbose:         a.Verbose == nil || *a.Verbose,
	}
}

// PathEnvVar names a config file that takes precedence over config/<env>.yaml.
const PathEnvVar = "BAYESAVG_CONFIG"

// Load resolves the config file for env and loads it. See LoadFile.
func Load(env string) (Config, error) {
	if path := os.Getenv(PathEnvVar); path != "" {
		return LoadFile(path)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads a YAML config, expands ${VAR} references, applies defaults and validates.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if data, err = expandEnvVars(data); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	def := domain.DefaultAveragingConfig()
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyMB <= 0 {
		c.HTTP.MaxBodyMB = 64
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Averaging.SimulationDraws == 0 {
		c.Averaging.SimulationDraws = def.SimulationDraws
	}
	if c.Averaging.MaxModels <= 0 {
		c.Averaging.MaxModels = def.MaxModels
	}
	if c.Averaging.Verbose == nil {
		v := def.Verbose
		c.Averaging.Verbose = &v
	}
	if c.Cache.FitCacheSize == nil {
		n := 256
		c.Cache.FitCacheSize = &n
	}
	if c.Database.ClientName == "" {
		c.Database.ClientName = "bayesavg"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.KeyPrefix
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if len(c.Database.Addrs) == 0 {
		errs = append(errs, errors.New("database.addrs is required"))
	}
	if c.Database.DB < 0 {
		errs = append(errs, fmt.Errorf("database.db must be >= 0, got %d", c.Database.DB))
	}
	if c.Averaging.SimulationDraws <= 0 {
		errs = append(errs, fmt.Errorf("averaging.simulation_draws must be positive, got %d", c.Averaging.SimulationDraws))
	}
	if math.IsNaN(c.Averaging.Missing) || math.IsInf(c.Averaging.Missing, 0) {
		errs = append(errs, errors.New("averaging.missing must be finite"))
	}
	if c.Cache.FitCacheSize != nil && *c.Cache.FitCacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache.fit_cache_size must be >= 0, got %d", *c.Cache.FitCacheSize))
	}
	return errors.Join(errs...)
}

// findConfigPath looks for config/<env>.yaml in the working directory and its
// parents, so binaries and tests started from subdirectories find the repo config.
func findConfigPath(env string) string {
	rel := filepath.Join("config", env+".yaml")
	dir, err := os.Getwd()
	if err != nil {
		return rel
	}
	for {
		candidate := filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return rel
		}
		dir = parent
	}
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR}, ${VAR:-default} and ${VAR:?message}.
// The last form fails with message when VAR is unset or empty.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []error
	out := envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		if name, msg, ok := strings.Cut(expr, ":?"); ok {
			val := os.Getenv(name)
			if val == "" {
				missing = append(missing, fmt.Errorf("%s: %s", name, msg))
			}
			return []byte(val)
		}
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}
	return out, nil
}
