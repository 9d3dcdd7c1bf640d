package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrEmptyKey indicates a cache key without a resource kind
	ErrEmptyKey = errors.New("cache key resource cannot be empty")
)

const (
	// DefaultTTL is the fallback TTL when none is configured
	DefaultTTL = 1 * time.Hour

	// DefaultStoreTimeout bounds Redis round trips on the request path
	DefaultStoreTimeout = 100 * time.Millisecond

	// scanBatch is the SCAN page and DEL batch size for pattern invalidation
	scanBatch = 128
)

// Loader produces the underlying value on a cache miss. It is the wrapped
// persistence-layer read; its result must be serialized already.
type Loader func(ctx context.Context) ([]byte, error)

// Config holds cache configuration.
type Config struct {
	// DefaultTTL applies when GetOrLoad is called with ttl == 0.
	DefaultTTL time.Duration

	// StoreTimeout bounds every Redis round trip.
	StoreTimeout time.Duration
}

// Cache handles read-through caching with a Redis backend.
type Cache struct {
	redis        *redis.Client
	defaultTTL   time.Duration
	storeTimeout time.Duration
	logger       zerolog.Logger
}

// New creates a cache with an injected Redis client.
func New(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Cache {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	return &Cache{
		redis:        redisClient,
		defaultTTL:   cfg.DefaultTTL,
		storeTimeout: cfg.StoreTimeout,
		logger:       logger,
	}
}

// GetOrLoad looks up key and returns the cached payload on a hit. On a miss
// it invokes loader, stores the result under key with ttl (the configured
// default when ttl == 0) and returns it.
//
// Loader failures propagate unchanged and nothing is written for them.
// Store faults never fail the read: the loader result is returned uncached.
//
// Concurrent misses for the same key may each invoke loader; the last
// writer wins. The wrapped reads are idempotent, so this is accepted.
func (c *Cache) GetOrLoad(ctx context.Context, key Key, ttl time.Duration, loader Loader) ([]byte, error) {
	entry, err := c.Get(ctx, key)
	if err == nil {
		return entry.Payload, nil
	}
	if errors.Is(err, ErrEmptyKey) {
		return nil, err
	}

	if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrInvalidEntry) {
		// Store fault: fail open, serve the loader result uncached.
		CacheDegraded.Inc()
		c.logger.Warn().
			Str("cache_key", key.String()).
			Err(err).
			Msg("cache lookup failed, falling back to loader")
		return loader(ctx)
	}

	payload, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, key, payload, ttl); err != nil {
		// Population is best effort; the caller still gets a fresh value.
		c.logger.Warn().
			Str("cache_key", key.String()).
			Err(err).
			Msg("cache population failed")
	}

	return payload, nil
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (c *Cache) Get(ctx context.Context, key Key) (*Entry, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	cacheKey := key.String()

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	data, err := c.redis.Get(sctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis expiry normally removes stale entries; this guards against
	// clock drift between writer and store.
	if entry.IsExpired() {
		_ = c.Invalidate(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()

	return &entry, nil
}

// Set stores payload under key with the given TTL (the configured default
// when ttl == 0).
func (c *Cache) Set(ctx context.Context, key Key, payload []byte, ttl time.Duration) error {
	if err := key.validate(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	entry := &Entry{
		Payload:   payload,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	if err := c.redis.Set(sctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Invalidate removes the entry for one exact key. Invalidating an absent
// key is a no-op. Store faults are absorbed and logged; the write path that
// triggered the invalidation must not fail on a cache outage.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	cacheKey := key.String()

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	if err := c.redis.Del(sctx, cacheKey).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		c.logger.Warn().
			Str("cache_key", cacheKey).
			Err(err).
			Msg("cache invalidation failed, entry expires via TTL")
		return nil
	}

	CacheInvalidations.WithLabelValues("key").Inc()
	return nil
}

// InvalidatePattern removes every entry matching a namespace pattern, used
// after writes that make a whole collection stale (see Key.CollectionPattern).
// Store faults are absorbed and logged.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return ErrEmptyKey
	}

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	iter := c.redis.Scan(sctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(sctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.redis.Del(sctx, batch...).Err(); err != nil {
				return c.absorbScanError(pattern, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return c.absorbScanError(pattern, err)
	}
	if len(batch) > 0 {
		if err := c.redis.Del(sctx, batch...).Err(); err != nil {
			return c.absorbScanError(pattern, err)
		}
	}

	CacheInvalidations.WithLabelValues("pattern").Inc()
	return nil
}

func (c *Cache) absorbScanError(pattern string, err error) error {
	CacheErrors.WithLabelValues("scan").Inc()
	c.logger.Warn().
		Str("pattern", pattern).
		Err(err).
		Msg("pattern invalidation failed, entries expire via TTL")
	return nil
}
