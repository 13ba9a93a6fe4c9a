// Package fitcache keeps recently used fits in memory in front of the fit repository.
package fitcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// repository is the decorated fit repository.
type repository interface {
	Create(ctx context.Context, f domfit.Fit) error
	Get(ctx context.Context, id string) (domfit.Fit, error)
	List(ctx context.Context) ([]domfit.Fit, error)
	Delete(ctx context.Context, id string) error
}

// Repo caches Get results. Fits are immutable, so entries only leave the cache on Delete or eviction.
type Repo struct {
	inner      repository
	cache      *lru.Cache[string, domfit.Fit]
	cacheTotal *prometheus.CounterVec
}

// New creates a caching decorator holding up to size fits. size 0 disables caching.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(inner repository, size int, cacheTotal *prometheus.CounterVec) (*Repo, error) {
	r := &Repo{inner: inner, cacheTotal: cacheTotal}
	if size <= 0 {
		return r, nil
	}
	cache, err := lru.New[string, domfit.Fit](size)
	if err != nil {
		return nil, fmt.Errorf("create fit cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Create delegates to the inner repository.
func (r *Repo) Create(ctx context.Context, f domfit.Fit) error {
	return r.inner.Create(ctx, f) //nolint:wrapcheck // transparent decorator
}

// Get returns a cached fit or loads it from the inner repository.
func (r *Repo) Get(ctx context.Context, id string) (domfit.Fit, error) {
	if r.cache != nil {
		if f, ok := r.cache.Get(id); ok {
			r.incCache("hit")
			return f, nil
		}
		r.incCache("miss")
	}

	f, err := r.inner.Get(ctx, id)
	if err != nil {
		return domfit.Fit{}, err //nolint:wrapcheck // transparent decorator
	}
	if r.cache != nil {
		r.cache.Add(id, f)
	}
	return f, nil
}

// List delegates to the inner repository.
func (r *Repo) List(ctx context.Context) ([]domfit.Fit, error) {
	return r.inner.List(ctx) //nolint:wrapcheck // transparent decorator
}

// Delete removes the fit from the cache and the inner repository.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if r.cache != nil {
		r.cache.Remove(id)
	}
	return r.inner.Delete(ctx, id) //nolint:wrapcheck // transparent decorator
}

// Len returns the number of cached fits.
func (r *Repo) Len() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

func (r *Repo) incCache(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(result).Inc()
	}
}
