package fit

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/bayesavg/internal/db"
	"github.com/kailas-cloud/bayesavg/internal/domain"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// --- Create ---

func TestCreate_Sampled(t *testing.T) {
	repo, ms := newTestRepo(t)
	f := testSampledFit(t)

	var drawsBlob []byte
	var meta map[string]string
	var indexed string
	var score float64
	ms.setNXFn = func(_ context.Context, key string, value []byte) (bool, error) {
		if key != "bayesavg:draws:m1" {
			t.Errorf("unexpected draws key: %s", key)
		}
		drawsBlob = value
		return true, nil
	}
	ms.zaddFn = func(_ context.Context, key, member string, s float64) error {
		if key != "bayesavg:fits" {
			t.Errorf("unexpected index key: %s", key)
		}
		indexed, score = member, s
		return nil
	}
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "bayesavg:fit:m1" {
			t.Errorf("unexpected meta key: %s", key)
		}
		meta = fields
		return nil
	}

	if err := repo.Create(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drawsBlob) == 0 {
		t.Fatal("draws were not stored")
	}
	if meta["kind"] != "sampled" || meta["draw_rows"] != "2" {
		t.Errorf("unexpected metadata: %v", meta)
	}
	if indexed != "m1" || score != float64(f.CreatedAt()) {
		t.Errorf("indexed %q with score %v", indexed, score)
	}
}

func TestCreate_SimulatedSkipsDraws(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.setNXFn = func(_ context.Context, _ string, _ []byte) (bool, error) {
		t.Error("simulated fits have no draws to store")
		return true, nil
	}

	if err := repo.Create(context.Background(), testSimulatedFit(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	err := repo.Create(context.Background(), testSampledFit(t))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_HSetError_RollsBackDraws(t *testing.T) {
	repo, ms := newTestRepo(t)

	var deleted []string
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		return errors.New("connection lost")
	}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}

	if err := repo.Create(context.Background(), testSampledFit(t)); err == nil {
		t.Fatal("expected error on HSET failure")
	}
	if !slices.Equal(deleted, []string{"bayesavg:draws:m1"}) {
		t.Errorf("rollback deleted %v, want draws key", deleted)
	}
}

func TestCreate_DrawsKeyTaken(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.setNXFn = func(_ context.Context, _ string, _ []byte) (bool, error) { return false, nil }
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		t.Error("metadata must not be written after losing the draws key")
		return nil
	}

	err := repo.Create(context.Background(), testSampledFit(t))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_IndexError_RollsBackEverything(t *testing.T) {
	repo, ms := newTestRepo(t)

	var deleted []string
	ms.zaddFn = func(_ context.Context, _, _ string, _ float64) error {
		return errors.New("OOM command not allowed")
	}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}

	if err := repo.Create(context.Background(), testSampledFit(t)); err == nil {
		t.Fatal("expected error on ZADD failure")
	}
	if !slices.Equal(deleted, []string{"bayesavg:fit:m1", "bayesavg:draws:m1"}) {
		t.Errorf("rollback deleted %v", deleted)
	}
}

// --- Get ---

func TestGet_RoundTripSampled(t *testing.T) {
	repo, ms := newTestRepo(t)
	f := testSampledFit(t)

	var meta map[string]string
	var blob []byte
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		meta = fields
		return nil
	}
	ms.setNXFn = func(_ context.Context, _ string, value []byte) (bool, error) {
		blob = value
		return true, nil
	}
	if err := repo.Create(context.Background(), f); err != nil {
		t.Fatalf("create: %v", err)
	}

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) { return meta, nil }
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return blob, nil }

	got, err := repo.Get(context.Background(), "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind() != domfit.KindSampled || got.Algorithm() != f.Algorithm() {
		t.Errorf("got kind %s algorithm %+v", got.Kind(), got.Algorithm())
	}
	if v, _ := got.Draws().Value(1, "b_x"); v != 1.4 {
		t.Errorf("b_x[1] = %v, want 1.4", v)
	}
	if got.CreatedAt() != f.CreatedAt() {
		t.Errorf("CreatedAt() = %d, want %d", got.CreatedAt(), f.CreatedAt())
	}
}

func TestGet_RoundTripSimulated(t *testing.T) {
	repo, ms := newTestRepo(t)
	f := testSimulatedFit(t)

	var meta map[string]string
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		meta = fields
		return nil
	}
	if err := repo.Create(context.Background(), f); err != nil {
		t.Fatalf("create: %v", err)
	}
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) { return meta, nil }
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		t.Error("simulated fits must not load draws")
		return nil, nil
	}

	got, err := repo.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got.Estimates(), []float64{0.5, -1}) {
		t.Errorf("Estimates() = %v", got.Estimates())
	}
	if got.Covariance()[1][1] != 2 {
		t.Errorf("Covariance() = %v", got.Covariance())
	}
	if got.Parameters()[1].Component != domfit.ComponentZeroInflated {
		t.Errorf("Parameters() = %+v", got.Parameters())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_DrawsMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{"id": "m1", "kind": "sampled", "created_at": "1"}, nil
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, db.ErrKeyNotFound }

	if _, err := repo.Get(context.Background(), "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- List ---

func TestList_IndexOrder(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.zrangeFn = func(_ context.Context, key string) ([]string, error) {
		if key != "bayesavg:fits" {
			t.Errorf("unexpected index key: %s", key)
		}
		return []string{"a", "gone", "b"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		want := []string{"bayesavg:fit:a", "bayesavg:fit:gone", "bayesavg:fit:b"}
		if !slices.Equal(keys, want) {
			t.Errorf("keys = %v, want %v", keys, want)
		}
		return []map[string]string{
			{"id": "a", "kind": "sampled", "params_json": "[]",
				"algorithm_json": `{"chains":1,"iterations":2,"warmup":1}`, "created_at": "10"},
			{},
			{"id": "b", "kind": "simulated", "params_json": "[]", "estimates_json": "[]",
				"covariance_json": "[]", "created_at": "20"},
		}, nil
	}

	fits, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fits) != 2 || fits[0].ID() != "a" || fits[1].ID() != "b" {
		t.Fatalf("unexpected order: %v", fits)
	}
}

func TestList_IndexError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.zrangeFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, &db.Error{Op: db.OpZRange, Err: errors.New("timeout")}
	}

	if _, err := repo.List(context.Background()); !errors.As(err, new(*db.Error)) {
		t.Fatalf("expected wrapped db.Error, got %v", err)
	}
}

func TestList_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	fits, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fits == nil || len(fits) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", fits)
	}
}

// --- Delete ---

func TestDelete_RemovesMetaAndDraws(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	var deleted, unindexed []string
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}
	ms.zremFn = func(_ context.Context, _ string, members ...string) error {
		unindexed = members
		return nil
	}

	if err := repo.Delete(context.Background(), "m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(deleted, []string{"bayesavg:fit:m1", "bayesavg:draws:m1"}) {
		t.Errorf("deleted %v", deleted)
	}
	if !slices.Equal(unindexed, []string{"m1"}) {
		t.Errorf("unindexed %v", unindexed)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Delete(context.Background(), "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNew_CustomPrefix(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, "test:")
	ms.existsFn = func(_ context.Context, key string) (bool, error) {
		if key != "test:fit:m1" {
			t.Errorf("unexpected key: %s", key)
		}
		return true, nil
	}
	_ = repo.Delete(context.Background(), "m1")
}
