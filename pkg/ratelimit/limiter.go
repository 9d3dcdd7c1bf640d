// Package ratelimit implements sliding-window admission control backed by
// Redis. Every inbound request is evaluated against a per-client trailing
// window before business logic runs; a store outage fails open and never
// turns into a client-visible rejection.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// keyPrefix namespaces rate limit state away from cache entries in the
// shared store.
const keyPrefix = "ratelimit"

// ErrEmptyClientKey indicates an evaluation without a client identity,
// a programming error at the call site.
var ErrEmptyClientKey = errors.New("client key cannot be empty")

// Prometheus metrics for admission decisions.
var (
	rateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ratelimit_decisions_total",
		Help: "Total admission decisions by outcome",
	}, []string{"outcome"}) // "allowed", "rejected", "degraded"

	rateLimitEvalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_ratelimit_evaluate_duration_seconds",
		Help:    "Duration of admission evaluations including the store round trip",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
)

// Decision is the outcome of one admission evaluation. The reporting
// fields are populated on admit and reject alike so callers can expose
// them as response headers.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the configured number of requests per window.
	Limit int

	// Remaining is how many further requests the window still admits.
	Remaining int

	// ResetAt is the instant the window will next admit one more request
	// (oldest surviving timestamp + window length).
	ResetAt time.Time

	// Degraded marks a decision produced by the fail-open path: the store
	// was unreachable and the request was admitted without evaluation.
	// Kept separate from Allowed so the policy stays observable.
	Degraded bool
}

// Config holds limiter configuration.
type Config struct {
	// Limit is the number of requests admitted per window. Inclusive: the
	// request that brings the count exactly to Limit is admitted.
	Limit int

	// Window is the sliding window length.
	Window time.Duration

	// ExemptPaths bypass evaluation entirely (prefix match).
	ExemptPaths []string

	// BypassToken, when non-empty, lets callers presenting it in
	// X-RateLimit-Bypass skip evaluation.
	BypassToken string

	// StoreTimeout bounds the Redis round trip per evaluation.
	StoreTimeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Limit:        100,
		Window:       60 * time.Second,
		StoreTimeout: 100 * time.Millisecond,
	}
}

// Limiter decides, per incoming request, whether to admit or reject based
// on a per-client request rate over a sliding window. It holds no
// cross-request state in process; all coordination is delegated to the
// store's per-key operations.
type Limiter struct {
	redis  *redis.Client
	cfg    Config
	logger zerolog.Logger
}

// New creates a limiter with an injected Redis client.
func New(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Limiter {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}
	return &Limiter{
		redis:  redisClient,
		cfg:    cfg,
		logger: logger,
	}
}

// slidingWindowScript records the request timestamp, trims entries that
// aged past the window, counts the survivors and refreshes the key expiry,
// all in one atomic store call. Scores are microseconds; the timestamp is
// recorded even when the request ends up rejected, so hammering keeps
// sliding the window instead of resetting it.
var slidingWindowScript = redis.NewScript(`
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1] - ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {count, oldest[2]}
`)

// Evaluate records the request at instant now and decides admission.
// clientKey must be non-empty.
//
// If the store is unreachable or the round trip exceeds the configured
// timeout, Evaluate fails open: it returns an admitting Decision with
// Degraded set and logs the degradation instead of propagating the error.
func (l *Limiter) Evaluate(ctx context.Context, clientKey string, now time.Time) (*Decision, error) {
	if clientKey == "" {
		return nil, ErrEmptyClientKey
	}

	start := time.Now()
	defer func() {
		rateLimitEvalDuration.Observe(time.Since(start).Seconds())
	}()

	key := keyPrefix + ":" + clientKey
	nowMicro := now.UnixMicro()
	// Members carry a nonce so simultaneous requests from one client
	// produce distinct entries and both count.
	member := strconv.FormatInt(nowMicro, 10) + "-" + strconv.FormatUint(rand.Uint64(), 36)

	sctx, cancel := context.WithTimeout(ctx, l.cfg.StoreTimeout)
	defer cancel()

	res, err := slidingWindowScript.Run(sctx, l.redis, []string{key},
		nowMicro,
		l.cfg.Window.Microseconds(),
		member,
		l.cfg.Window.Milliseconds(),
	).Result()
	if err != nil {
		return l.failOpen(clientKey, now, err), nil
	}

	count, oldestMicro, err := parseWindowReply(res)
	if err != nil {
		return l.failOpen(clientKey, now, err), nil
	}

	allowed := count <= int64(l.cfg.Limit)
	remaining := l.cfg.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	decision := &Decision{
		Allowed:   allowed,
		Limit:     l.cfg.Limit,
		Remaining: remaining,
		ResetAt:   time.UnixMicro(oldestMicro).Add(l.cfg.Window),
	}

	if allowed {
		rateLimitDecisions.WithLabelValues("allowed").Inc()
	} else {
		rateLimitDecisions.WithLabelValues("rejected").Inc()
		l.logger.Debug().
			Str("client_key", clientKey).
			Int64("count", count).
			Time("reset_at", decision.ResetAt).
			Msg("request rejected, window full")
	}

	return decision, nil
}

// IsExempt reports whether path matches the configured allow-list and
// bypasses evaluation entirely.
func (l *Limiter) IsExempt(path string) bool {
	for _, prefix := range l.cfg.ExemptPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Limit returns the configured per-window request limit.
func (l *Limiter) Limit() int {
	return l.cfg.Limit
}

// failOpen converts a store fault into an admitting decision. The fault is
// logged and counted but never surfaced to the caller.
func (l *Limiter) failOpen(clientKey string, now time.Time, err error) *Decision {
	rateLimitDecisions.WithLabelValues("degraded").Inc()
	l.logger.Warn().
		Str("client_key", clientKey).
		Err(err).
		Msg("store unreachable, admitting request")

	return &Decision{
		Allowed:   true,
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit,
		ResetAt:   now.Add(l.cfg.Window),
		Degraded:  true,
	}
}

// parseWindowReply unpacks the script reply: surviving count and the score
// of the oldest surviving timestamp.
func parseWindowReply(res interface{}) (count int64, oldestMicro int64, err error) {
	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, 0, fmt.Errorf("unexpected script reply %T", res)
	}

	count, ok = reply[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected count type %T", reply[0])
	}

	scoreStr, ok := reply[1].(string)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected score type %T", reply[1])
	}
	score, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse oldest score: %w", err)
	}

	return count, int64(score), nil
}
