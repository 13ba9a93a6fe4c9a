package fit

import (
	"context"
	"testing"

	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	getFn          func(ctx context.Context, key string) ([]byte, error)
	setNXFn        func(ctx context.Context, key string, value []byte) (bool, error)
	delFn          func(ctx context.Context, keys ...string) error
	existsFn       func(ctx context.Context, key string) (bool, error)
	zaddFn         func(ctx context.Context, key, member string, score float64) error
	zrangeFn       func(ctx context.Context, key string) ([]string, error)
	zremFn         func(ctx context.Context, key string, members ...string) error
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return true, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	if m.zaddFn != nil {
		return m.zaddFn(ctx, key, member, score)
	}
	return nil
}

func (m *mockStore) ZRange(ctx context.Context, key string) ([]string, error) {
	if m.zrangeFn != nil {
		return m.zrangeFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) ZRem(ctx context.Context, key string, members ...string) error {
	if m.zremFn != nil {
		return m.zremFn(ctx, key, members...)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, ""), ms
}

func testSampledFit(t *testing.T) domfit.Fit {
	t.Helper()
	tbl, err := draws.New([]string{"b_Intercept", "b_x"}, [][]float64{{0.1, 1.5}, {0.2, 1.4}})
	if err != nil {
		t.Fatalf("draws.New: %v", err)
	}
	f, err := domfit.NewSampled("m1", []domfit.Parameter{
		{Name: "b_Intercept"},
		{Name: "b_x"},
	}, tbl, budget.Algorithm{Chains: 1, Iterations: 4, Warmup: 2})
	if err != nil {
		t.Fatalf("fit.NewSampled: %v", err)
	}
	return f
}

func testSimulatedFit(t *testing.T) domfit.Fit {
	t.Helper()
	f, err := domfit.NewSimulated("s1", []domfit.Parameter{
		{Name: "(Intercept)"},
		{Name: "x", Component: domfit.ComponentZeroInflated},
	}, []float64{0.5, -1}, [][]float64{{1, 0.2}, {0.2, 2}})
	if err != nil {
		t.Fatalf("fit.NewSimulated: %v", err)
	}
	return f
}
