package probability

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/bayesavg/internal/domain"
)

// SumTolerance is the allowed deviation of a probability vector's sum from 1.
const SumTolerance = 1e-6

// Vector holds one probability per model, aligned with model order. Entries sum to 1.
type Vector []float64

// Compute turns Bayes factors and prior odds into prior and posterior model probabilities.
//
// scores[0] belongs to the denominator model. priorOdds has one entry per
// non-denominator model; nil means equal prior odds. The denominator's odds of 1
// is prepended before weighting:
//
//	prior[i]     = odds[i] / sum(odds)
//	posterior[i] = odds[i]*scores[i] / sum(odds*scores)
//
// Both are computed in log space.
func Compute(scores, priorOdds []float64) (prior, posterior Vector, err error) {
	if len(scores) == 0 {
		return nil, nil, domain.InvalidInputf("at least one model score is required")
	}
	if priorOdds != nil && len(priorOdds) != len(scores)-1 {
		return nil, nil, domain.InvalidInputf(
			"got %d prior odds for %d models, want %d", len(priorOdds), len(scores), len(scores)-1)
	}
	for i, s := range scores {
		if !isFinite(s) {
			return nil, nil, domain.InvalidInputf("score %d is not finite", i)
		}
		if s <= 0 {
			return nil, nil, domain.InvalidInputf("score %d must be positive, got %v", i, s)
		}
	}

	odds := make([]float64, len(scores))
	odds[0] = 1
	for i := 1; i < len(odds); i++ {
		odds[i] = 1
		if priorOdds == nil {
			continue
		}
		o := priorOdds[i-1]
		if !isFinite(o) {
			return nil, nil, domain.InvalidInputf("prior odds %d is not finite", i-1)
		}
		if o <= 0 {
			return nil, nil, domain.InvalidInputf("prior odds %d must be positive, got %v", i-1, o)
		}
		odds[i] = o
	}

	logOdds := make([]float64, len(odds))
	logWeighted := make([]float64, len(odds))
	for i := range odds {
		logOdds[i] = math.Log(odds[i])
		logWeighted[i] = logOdds[i] + math.Log(scores[i])
	}
	return normalizeLog(logOdds), normalizeLog(logWeighted), nil
}

// Drop removes entry i and renormalizes the rest. Dropping the only entry is an error.
func (v Vector) Drop(i int) (Vector, error) {
	if i < 0 || i >= len(v) {
		return nil, domain.InvalidInputf("index %d out of range for %d models", i, len(v))
	}
	if len(v) == 1 {
		return nil, domain.InvalidInputf("cannot drop the only model")
	}
	rest := make([]float64, 0, len(v)-1)
	rest = append(rest, v[:i]...)
	rest = append(rest, v[i+1:]...)
	return normalize(rest)
}

// Validate checks that every entry is a finite non-negative number and the sum is 1.
func (v Vector) Validate() error {
	for i, p := range v {
		if !isFinite(p) || p < 0 {
			return domain.InvalidInputf("probability %d must be a finite non-negative number, got %v", i, p)
		}
	}
	if sum := floats.Sum(v); math.Abs(sum-1) > SumTolerance {
		return domain.InvalidInputf("probabilities sum to %v, want 1", sum)
	}
	return nil
}

func normalize(x []float64) (Vector, error) {
	sum := floats.Sum(x)
	if !isFinite(sum) || sum <= 0 {
		return nil, domain.InvalidInputf("cannot normalize weights with sum %v", sum)
	}
	out := make([]float64, len(x))
	copy(out, x)
	floats.Scale(1/sum, out)
	return out, nil
}

// normalizeLog exponentiates log weights relative to their log-sum-exp, so finite
// weights whose plain sum would overflow still normalize.
func normalizeLog(logw []float64) Vector {
	lse := floats.LogSumExp(logw)
	out := make([]float64, len(logw))
	for i, l := range logw {
		out[i] = math.Exp(l - lse)
	}
	return out
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
