package budget

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/bayesavg/internal/domain"
)

func TestSamples(t *testing.T) {
	a := Algorithm{Chains: 4, Iterations: 2000, Warmup: 1000}
	if a.Samples() != 4000 {
		t.Errorf("Samples() = %d, want 4000", a.Samples())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		a    Algorithm
		ok   bool
	}{
		{"valid", Algorithm{Chains: 4, Iterations: 2000, Warmup: 1000}, true},
		{"no warmup", Algorithm{Chains: 1, Iterations: 10}, true},
		{"zero chains", Algorithm{Chains: 0, Iterations: 10}, false},
		{"zero iterations", Algorithm{Chains: 1, Iterations: 0}, false},
		{"negative warmup", Algorithm{Chains: 1, Iterations: 10, Warmup: -1}, false},
		{"warmup equals iterations", Algorithm{Chains: 1, Iterations: 10, Warmup: 10}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.a.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPlan_TightestModelWins(t *testing.T) {
	got, err := Plan([]Algorithm{
		{Chains: 4, Iterations: 2000, Warmup: 1000},
		{Chains: 2, Iterations: 1500, Warmup: 500},
		{Chains: 4, Iterations: 5000, Warmup: 1000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2000 {
		t.Errorf("Plan() = %d, want 2000", got)
	}
}

func TestPlan_Errors(t *testing.T) {
	if _, err := Plan(nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty: expected ErrInvalidInput, got %v", err)
	}
	_, err := Plan([]Algorithm{
		{Chains: 4, Iterations: 2000, Warmup: 1000},
		{Chains: 4, Iterations: 1000, Warmup: 1000},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("zero draws: expected ErrInvalidInput, got %v", err)
	}
}

func TestFixed(t *testing.T) {
	n, err := Fixed(4000)
	if err != nil || n != 4000 {
		t.Errorf("Fixed(4000) = %d, %v", n, err)
	}
	if _, err := Fixed(0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Fixed(0): expected ErrInvalidInput, got %v", err)
	}
}
