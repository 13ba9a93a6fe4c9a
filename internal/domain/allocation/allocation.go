package allocation

import (
	"math"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/probability"
)

// Allocation is the number of draws taken from each model, aligned with model order.
// Its sum may drift from the total by up to len/2 because entries are rounded independently.
type Allocation []int

// Allocate splits total draws across models in proportion to their posterior probabilities.
// Each entry is round(total * p[i]) with ties rounded away from zero.
func Allocate(posterior probability.Vector, total int) (Allocation, error) {
	if total < 0 {
		return nil, domain.InvalidInputf("sample budget must be non-negative, got %d", total)
	}
	if err := posterior.Validate(); err != nil {
		return nil, err
	}
	out := make(Allocation, len(posterior))
	for i, p := range posterior {
		n := int(math.Round(float64(total) * p))
		// p can exceed 1 by the sum tolerance
		out[i] = min(n, total)
	}
	return out, nil
}

// Total returns the number of draws across all models.
func (a Allocation) Total() int {
	var n int
	for _, v := range a {
		n += v
	}
	return n
}
