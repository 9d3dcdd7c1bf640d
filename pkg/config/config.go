// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds the full service configuration.
type Settings struct {
	// HTTP
	Port string

	// Database
	DatabaseDSN      string
	DatabasePoolSize int

	// Redis (shared store for cache and rate limiting)
	RedisAddr string
	RedisDB   int

	// CacheTTL is the default TTL for cached reads.
	CacheTTL time.Duration

	// Rate limiting
	RateLimitRequests    int
	RateLimitWindow      time.Duration
	RateLimitBypassToken string
	RateLimitExemptPaths []string

	// StoreTimeout bounds every Redis round trip on the request path.
	StoreTimeout time.Duration

	// Logging
	LogLevel  string
	LogPretty bool
}

// Load reads settings from environment variables, applying defaults
// and validating numeric values.
func Load() (*Settings, error) {
	s := &Settings{
		Port:                 getEnv("PORT", "8080"),
		DatabaseDSN:          getEnv("DATABASE_URL", "admin:password@tcp(localhost:3306)/product_order_db?parseTime=true"),
		RedisAddr:            getEnv("REDIS_URL", "localhost:6379"),
		RateLimitBypassToken: os.Getenv("RATE_LIMIT_BYPASS_TOKEN"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if s.DatabasePoolSize, err = getEnvInt("DATABASE_POOL_SIZE", 20); err != nil {
		return nil, err
	}
	if s.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvInt("REDIS_TTL", 3600)
	if err != nil {
		return nil, err
	}
	s.CacheTTL = time.Duration(cacheTTL) * time.Second

	if s.RateLimitRequests, err = getEnvInt("RATE_LIMIT_REQUESTS", 100); err != nil {
		return nil, err
	}

	window, err := getEnvInt("RATE_LIMIT_WINDOW", 60)
	if err != nil {
		return nil, err
	}
	s.RateLimitWindow = time.Duration(window) * time.Second

	timeoutMS, err := getEnvInt("STORE_TIMEOUT_MS", 100)
	if err != nil {
		return nil, err
	}
	s.StoreTimeout = time.Duration(timeoutMS) * time.Millisecond

	s.RateLimitExemptPaths = splitPaths(getEnv("RATE_LIMIT_EXEMPT_PATHS", "/healthz,/metrics"))
	s.LogPretty = getEnv("LOG_PRETTY", "false") == "true"

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// validate checks that required values are present and positive.
func (s *Settings) validate() error {
	if s.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_URL must be provided")
	}
	if s.RedisAddr == "" {
		return fmt.Errorf("REDIS_URL must be provided")
	}
	for name, v := range map[string]int{
		"DATABASE_POOL_SIZE":  s.DatabasePoolSize,
		"RATE_LIMIT_REQUESTS": s.RateLimitRequests,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be a positive number, got %d", name, v)
		}
	}
	for name, d := range map[string]time.Duration{
		"REDIS_TTL":         s.CacheTTL,
		"RATE_LIMIT_WINDOW": s.RateLimitWindow,
		"STORE_TIMEOUT_MS":  s.StoreTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive number, got %s", name, d)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return n, nil
}

func splitPaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
