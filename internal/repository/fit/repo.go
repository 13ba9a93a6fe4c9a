package fit

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/bayesavg/internal/db"
	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// store is the consumer interface for fits (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRange(ctx context.Context, key string) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
}

// Repo implements usecase/fit.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a fit repository. An empty prefix uses domain.KeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Create stores a fit in three steps: SET NX draws (sampled only), HSET
// metadata, ZADD to the index. A failed step undoes the earlier ones.
func (r *Repo) Create(ctx context.Context, f domfit.Fit) error {
	id := f.ID()
	metaKey := r.metaKey(id)

	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	hashData, err := fitToHash(f)
	if err != nil {
		return err
	}

	written := []string{metaKey}
	if f.Kind() == domfit.KindSampled {
		blob, err := encodeDraws(f.Draws())
		if err != nil {
			return err
		}
		drawsKey := r.drawsKey(id)
		ok, err := r.store.SetNX(ctx, drawsKey, blob)
		if err != nil {
			return fmt.Errorf("set draws %s: %w", id, err)
		}
		if !ok {
			// a concurrent Create for the same id won the race
			return domain.ErrAlreadyExists
		}
		written = append(written, drawsKey)
	}

	if err := r.store.HSet(ctx, metaKey, hashData); err != nil {
		return errors.Join(fmt.Errorf("hset fit %s: %w", id, err), r.store.Del(ctx, written[1:]...))
	}
	if err := r.store.ZAdd(ctx, r.indexKey(), id, float64(f.CreatedAt())); err != nil {
		return errors.Join(fmt.Errorf("index fit %s: %w", id, err), r.store.Del(ctx, written...))
	}
	return nil
}

// Get retrieves a fit with its draws.
func (r *Repo) Get(ctx context.Context, id string) (domfit.Fit, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(id))
	if err != nil {
		return domfit.Fit{}, fmt.Errorf("hgetall fit %s: %w", id, err)
	}
	if len(m) == 0 {
		return domfit.Fit{}, domain.ErrNotFound
	}

	var tbl draws.Table
	if domfit.Kind(m["kind"]) == domfit.KindSampled {
		data, err := r.store.Get(ctx, r.drawsKey(id))
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				return domfit.Fit{}, fmt.Errorf("draws of fit %s: %w", id, domain.ErrNotFound)
			}
			return domfit.Fit{}, fmt.Errorf("get draws %s: %w", id, err)
		}
		if tbl, err = decodeDraws(data); err != nil {
			return domfit.Fit{}, err
		}
	}

	f, err := fitFromHash(m, tbl)
	if err != nil {
		return domfit.Fit{}, fmt.Errorf("parse fit %s: %w", id, err)
	}
	return f, nil
}

// List returns fit metadata ordered by CreatedAt. Draw tables are not loaded.
// Index entries whose hash has vanished are skipped.
func (r *Repo) List(ctx context.Context) ([]domfit.Fit, error) {
	ids, err := r.store.ZRange(ctx, r.indexKey())
	if err != nil {
		return nil, fmt.Errorf("read fit index: %w", err)
	}
	if len(ids) == 0 {
		return []domfit.Fit{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.metaKey(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi fits: %w", err)
	}

	fits := make([]domfit.Fit, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		f, err := fitFromHash(m, draws.Table{})
		if err != nil {
			return nil, fmt.Errorf("parse fit %s: %w", ids[i], err)
		}
		fits = append(fits, f)
	}
	return fits, nil
}

// Delete removes a fit and its draws.
func (r *Repo) Delete(ctx context.Context, id string) error {
	metaKey := r.metaKey(id)
	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, metaKey, r.drawsKey(id)); err != nil {
		return fmt.Errorf("del fit %s: %w", id, err)
	}
	if err := r.store.ZRem(ctx, r.indexKey(), id); err != nil {
		return fmt.Errorf("unindex fit %s: %w", id, err)
	}
	return nil
}

// Key patterns: {prefix}fit:{id} (metadata hash), {prefix}draws:{id} (draw table blob),
// {prefix}fits (sorted set of ids scored by CreatedAt).

func (r *Repo) indexKey() string {
	return r.prefix + "fits"
}

func (r *Repo) metaKey(id string) string {
	return fmt.Sprintf("%sfit:%s", r.prefix, id)
}

func (r *Repo) drawsKey(id string) string {
	return fmt.Sprintf("%sdraws:%s", r.prefix, id)
}
