// Package cache stores placement results between runs.
//
// Placement is deterministic for a fixed input and seed, so a result can
// be keyed by the hash of its input grids and options. Three backends
// implement [Cache]:
//
//   - [NullCache] never stores anything (--no-cache)
//   - [FileCache] keeps entries under the user cache directory
//   - [RedisCache] shares entries between processes and hosts
//
// Keys are produced by a [Keyer]; [ScopedKeyer] isolates namespaces, for
// example API results from CLI results.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiration.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
