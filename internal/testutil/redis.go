// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetupRedis creates a Redis client against the local test instance
// (DB 15, flushed before and after the test). The test is skipped when no
// Redis is reachable; integration tests cover the containerized path.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// UnreachableRedis creates a client pointed at a port nothing listens on,
// for exercising the fail-open paths without a store.
func UnreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:1", // Nothing listens here
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1, // Fail immediately, no client-side retries
	})
	t.Cleanup(func() { client.Close() })
	return client
}
