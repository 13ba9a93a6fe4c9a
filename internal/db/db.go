// Package db declares the storage contracts the repositories are written against.
package db

import (
	"context"
	"time"
)

// Store is everything the composition root hands to repositories.
type Store interface {
	Pinger
	HashStore
	BlobStore
	IndexStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore keeps small structured records such as fit and ensemble metadata.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HGetAllMulti returns one map per key, in key order. Missing keys yield empty maps.
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// BlobStore keeps opaque payloads such as encoded draw tables.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetNX writes value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// IndexStore keeps members of a set ordered by score.
type IndexStore interface {
	ZAdd(ctx context.Context, key, member string, score float64) error
	// ZRange returns every member, lowest score first.
	ZRange(ctx context.Context, key string) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
}
