package ensemble

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Ensemble is a named set of competing fits with their Bayes factors (immutable value object).
// The first model is the denominator: its Bayes factor is 1 and prior odds are relative to it.
type Ensemble struct {
	name         string
	models       []string
	bayesFactors []float64
	priorOdds    []float64
	createdAt    int64
}

// New validates and creates an Ensemble.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Models: unique, at most maxModels (0 = unlimited).
// bayesFactors: one per model, finite and positive, the first equal to 1.
// priorOdds: nil or one per non-denominator model, finite and positive.
func New(name string, models []string, bayesFactors, priorOdds []float64, maxModels int) (Ensemble, error) {
	if err := validateName(name); err != nil {
		return Ensemble{}, err
	}
	if len(models) == 0 {
		return Ensemble{}, fmt.Errorf("at least one model is required")
	}
	if maxModels > 0 && len(models) > maxModels {
		return Ensemble{}, fmt.Errorf("too many models (max %d)", maxModels)
	}
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if m == "" {
			return Ensemble{}, fmt.Errorf("model ID is required")
		}
		if seen[m] {
			return Ensemble{}, fmt.Errorf("duplicate model: %s", m)
		}
		seen[m] = true
	}
	if len(bayesFactors) != len(models) {
		return Ensemble{}, fmt.Errorf("got %d Bayes factors for %d models", len(bayesFactors), len(models))
	}
	if bayesFactors[0] != 1 {
		return Ensemble{}, fmt.Errorf("denominator Bayes factor must be 1, got %v", bayesFactors[0])
	}
	if err := validatePositive("Bayes factor", bayesFactors); err != nil {
		return Ensemble{}, err
	}
	if priorOdds != nil {
		if len(priorOdds) != len(models)-1 {
			return Ensemble{}, fmt.Errorf("got %d prior odds for %d models, want %d",
				len(priorOdds), len(models), len(models)-1)
		}
		if err := validatePositive("prior odds", priorOdds); err != nil {
			return Ensemble{}, err
		}
	}
	return Ensemble{
		name:         name,
		models:       append([]string(nil), models...),
		bayesFactors: append([]float64(nil), bayesFactors...),
		priorOdds:    cloneOrNil(priorOdds),
		createdAt:    time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates an Ensemble without validation (storage hydration).
func Reconstruct(name string, models []string, bayesFactors, priorOdds []float64, createdAt int64) Ensemble {
	return Ensemble{
		name:         name,
		models:       models,
		bayesFactors: bayesFactors,
		priorOdds:    priorOdds,
		createdAt:    createdAt,
	}
}

// Name returns the ensemble name.
func (e Ensemble) Name() string { return e.name }

// Models returns the fit IDs, denominator first.
func (e Ensemble) Models() []string { return e.models }

// BayesFactors returns the Bayes factors aligned with Models.
func (e Ensemble) BayesFactors() []float64 { return e.bayesFactors }

// PriorOdds returns the prior odds of the non-denominator models (nil = equal odds).
func (e Ensemble) PriorOdds() []float64 { return e.priorOdds }

// Denominator returns the reference model ID.
func (e Ensemble) Denominator() string { return e.models[0] }

// CreatedAt returns the creation timestamp (unix millis).
func (e Ensemble) CreatedAt() int64 { return e.createdAt }

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("ensemble name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("ensemble name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("ensemble name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

func validatePositive(what string, xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
			return fmt.Errorf("%s %d must be a finite positive number, got %v", what, i, x)
		}
	}
	return nil
}

func cloneOrNil(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	return append([]float64(nil), xs...)
}
