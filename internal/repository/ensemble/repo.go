package ensemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
)

// store is the consumer interface for ensembles (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRange(ctx context.Context, key string) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
}

// Repo implements usecase/ensemble.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates an ensemble repository. An empty prefix uses domain.KeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Create stores an ensemble and adds it to the index.
func (r *Repo) Create(ctx context.Context, e domens.Ensemble) error {
	key := r.key(e.Name())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	hashData, err := ensembleToHash(e)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key, hashData); err != nil {
		return fmt.Errorf("hset ensemble %s: %w", e.Name(), err)
	}
	if err := r.store.ZAdd(ctx, r.indexKey(), e.Name(), float64(e.CreatedAt())); err != nil {
		return errors.Join(fmt.Errorf("index ensemble %s: %w", e.Name(), err), r.store.Del(ctx, key))
	}
	return nil
}

// Get retrieves an ensemble by name.
func (r *Repo) Get(ctx context.Context, name string) (domens.Ensemble, error) {
	m, err := r.store.HGetAll(ctx, r.key(name))
	if err != nil {
		return domens.Ensemble{}, fmt.Errorf("hgetall ensemble %s: %w", name, err)
	}
	if len(m) == 0 {
		return domens.Ensemble{}, domain.ErrNotFound
	}
	e, err := ensembleFromHash(m)
	if err != nil {
		return domens.Ensemble{}, fmt.Errorf("parse ensemble %s: %w", name, err)
	}
	return e, nil
}

// List returns all ensembles ordered by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domens.Ensemble, error) {
	names, err := r.store.ZRange(ctx, r.indexKey())
	if err != nil {
		return nil, fmt.Errorf("read ensemble index: %w", err)
	}
	if len(names) == 0 {
		return []domens.Ensemble{}, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = r.key(n)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi ensembles: %w", err)
	}

	out := make([]domens.Ensemble, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		e, err := ensembleFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse ensemble %s: %w", names[i], err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Delete removes an ensemble. Its fits are left untouched.
func (r *Repo) Delete(ctx context.Context, name string) error {
	key := r.key(name)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del ensemble %s: %w", name, err)
	}
	return r.store.ZRem(ctx, r.indexKey(), name)
}

// Key patterns: {prefix}ensemble:{name} (hash), {prefix}ensembles (index).

func (r *Repo) indexKey() string {
	return r.prefix + "ensembles"
}

func (r *Repo) key(name string) string {
	return fmt.Sprintf("%sensemble:%s", r.prefix, name)
}
