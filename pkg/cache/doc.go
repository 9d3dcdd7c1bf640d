// Package cache provides read-through caching of repository reads with a
// Redis backend.
//
// The cache memoizes expensive reads and keeps memoized results consistent
// with writes performed through the same service:
//
// - Deterministic cache key derivation from resource kind and parameters
// - Read-through population: miss invokes the loader and stores the result
// - Explicit invalidation on writes (single key and namespace pattern)
// - TTL-based expiry as the fallback staleness bound
// - Fail-open on store faults: a Redis outage degrades reads to the loader
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache
//	c := cache.New(redisClient, cache.Config{DefaultTTL: 30 * time.Second})
//
//	// Read through the cache
//	key := cache.Key{Resource: "product", ID: "42"}
//	payload, err := c.GetOrLoad(ctx, key, 0, func(ctx context.Context) ([]byte, error) {
//		return loadProductJSON(ctx, 42)
//	})
//
// # Write Invalidation
//
//	// After any create/update/delete on a product:
//	c.Invalidate(ctx, cache.Key{Resource: "product", ID: "42"})
//	c.InvalidatePattern(ctx, cache.Key{Resource: "product"}.CollectionPattern())
//
// Invalidation runs synchronously on the write path before the response is
// returned, so staleness is bounded by the invalidation latency rather than
// the full TTL.
//
// # Failure Semantics
//
// The cache is strictly an optimization layer. Store faults are absorbed at
// the package boundary: lookups fall through to the loader, writes and
// invalidations are logged and dropped. Loader failures are propagated
// unchanged and nothing is written for them.
package cache
