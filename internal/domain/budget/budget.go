package budget

import (
	"fmt"

	"github.com/kailas-cloud/bayesavg/internal/domain"
)

// Algorithm describes how a model's posterior sample was produced.
type Algorithm struct {
	Chains     int
	Iterations int // per chain, warm-up included
	Warmup     int // per chain
}

// Validate checks chain/iteration/warm-up consistency.
func (a Algorithm) Validate() error {
	if a.Chains <= 0 {
		return fmt.Errorf("chains must be positive, got %d", a.Chains)
	}
	if a.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", a.Iterations)
	}
	if a.Warmup < 0 || a.Warmup >= a.Iterations {
		return fmt.Errorf("warmup must be in [0, %d), got %d", a.Iterations, a.Warmup)
	}
	return nil
}

// Samples returns the post-warm-up draw count: chains * (iterations - warmup).
func (a Algorithm) Samples() int {
	return a.Chains * (a.Iterations - a.Warmup)
}

// Plan returns the largest pooled size every model can support: the minimum
// post-warm-up draw count across models.
func Plan(algos []Algorithm) (int, error) {
	if len(algos) == 0 {
		return 0, domain.InvalidInputf("at least one model is required to plan a sample budget")
	}
	total := -1
	for i, a := range algos {
		n := a.Samples()
		if n <= 0 {
			return 0, domain.InvalidInputf(
				"model %d yields %d draws (chains=%d, iterations=%d, warmup=%d)",
				i, n, a.Chains, a.Iterations, a.Warmup)
		}
		if total < 0 || n < total {
			total = n
		}
	}
	return total, nil
}

// Fixed returns an externally fixed budget, used when models carry no sampler metadata.
func Fixed(n int) (int, error) {
	if n <= 0 {
		return 0, domain.InvalidInputf("fixed sample budget must be positive, got %d", n)
	}
	return n, nil
}
