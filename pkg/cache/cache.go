// Package cache provides the key/value caches shed keeps across runs.
//
// The license resolver is the main client: resolved licenses are stored
// per (ecosystem, package) so repeated runs and concurrent pipelines do not
// query the research backends again. Backends:
//   - [FileCache]: one JSON file per key under the user cache directory
//   - [SQLiteCache]: a single SQLite database file
//   - [RedisCache]: shared cache for multi-instance API deployments
//   - [MemoryCache]: process-local, for tests and one-shot runs
//   - [NullCache]: caching disabled
//
// Every backend also implements [Adder], giving first-writer-wins semantics
// for concurrent stores of the same key.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is reported
	// as hit == false with a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Adder is implemented by caches that can store a key only if it is
// absent. Add reports whether data was stored.
type Adder interface {
	Add(ctx context.Context, key string, data []byte, ttl time.Duration) (bool, error)
}

// Add stores data under key unless a live entry exists. Caches without
// native support fall back to a non-atomic Get then Set.
func Add(ctx context.Context, c Cache, key string, data []byte, ttl time.Duration) (bool, error) {
	if a, ok := c.(Adder); ok {
		return a.Add(ctx, key, data, ttl)
	}
	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		return false, err
	}
	return true, c.Set(ctx, key, data, ttl)
}

// GetJSON decodes the value stored under key into v. It returns
// [ErrCacheMiss] when the key is absent.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !hit {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, v)
}

// AddJSON encodes v and stores it with [Add].
func AddJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return Add(ctx, c, key, data, ttl)
}
