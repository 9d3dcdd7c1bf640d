// Package metrics provides the centralized Prometheus registry reference
// for the service. All metrics are defined in their respective packages
// (ratelimit, cache, api) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - catalog_ratelimit_decisions_total{outcome} (Counter): Admission decisions
//     by outcome (allowed, rejected, degraded)
//   - catalog_ratelimit_evaluate_duration_seconds (Histogram): Evaluation
//     duration including the store round trip
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_degraded_total (Counter): Reads that bypassed the cache
//     due to store faults
//   - catalog_cache_invalidations_total{mode} (Counter): Invalidations by
//     mode (key, pattern)
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (internal/api):
//   - catalog_requests_total{route, status} (Counter): Requests by route and
//     HTTP status
//   - catalog_request_duration_seconds{route} (Histogram): Request duration
//     by route
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Rejection Rate
//   rate(catalog_ratelimit_decisions_total{outcome="rejected"}[5m])
//
//   # Fail-Open Events (store trouble)
//   rate(catalog_ratelimit_decisions_total{outcome="degraded"}[5m]) +
//   rate(catalog_cache_degraded_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
