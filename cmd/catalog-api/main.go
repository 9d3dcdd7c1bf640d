// Command catalog-api runs the product/order CRUD service with the
// Redis-backed rate limiter and read-through cache in front of MySQL.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"catalog-service/internal/api"
	"catalog-service/internal/storage"
	"catalog-service/pkg/cache"
	"catalog-service/pkg/config"
	"catalog-service/pkg/logging"
	"catalog-service/pkg/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Setup(logging.DefaultConfig())
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx := context.Background()

	// Shared store for the performance layer. A Redis outage must not
	// prevent startup: both components fail open without it.
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).
			Msg("redis unreachable at startup, running degraded")
	} else {
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	}

	// The database is the source of truth and is required.
	repo, err := storage.NewMySQL(cfg.DatabaseDSN, cfg.DatabasePoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer repo.Close()
	if err := repo.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("database unreachable")
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}
	logger.Info().Msg("connected to database")

	limiter := ratelimit.New(redisClient, ratelimit.Config{
		Limit:        cfg.RateLimitRequests,
		Window:       cfg.RateLimitWindow,
		ExemptPaths:  cfg.RateLimitExemptPaths,
		BypassToken:  cfg.RateLimitBypassToken,
		StoreTimeout: cfg.StoreTimeout,
	}, logging.NewLogger("ratelimit"))

	c := cache.New(redisClient, cache.Config{
		DefaultTTL:   cfg.CacheTTL,
		StoreTimeout: cfg.StoreTimeout,
	}, logging.NewLogger("cache"))

	server := api.NewServer(repo, c, limiter, cfg.CacheTTL, logging.NewLogger("api"))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info().
			Str("addr", httpServer.Addr).
			Int("rate_limit", cfg.RateLimitRequests).
			Dur("window", cfg.RateLimitWindow).
			Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}
