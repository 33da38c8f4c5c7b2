// Package cache provides response caching for the Superset API client.
//
// A [Cache] stores raw bytes under string keys with per-entry TTLs.
// Four implementations cover the usual setups: [FileCache] persists
// across CLI invocations, [MemoryCache] lives for one process,
// [RedisCache] is shared between workers, and [NullCache] disables
// caching entirely.
//
// Keys are built by a [Keyer], so callers never hand-format them. Use
// [NewScopedKeyer] to isolate profiles that share a cache directory:
//
//	keyer := cache.NewScopedKeyer(nil, "profile:prod:")
//	key := keyer.RequestKey("dashboard", url)
package cache

import (
	"context"
	"time"
)

// Cache stores raw response bytes keyed by strings. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the cached bytes for key. The second return is false
	// on a miss, including entries that have expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never
	// expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
