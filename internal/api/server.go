// Package api wires the HTTP route handlers to the repository through the
// performance layer: every read goes through the cache, every write
// invalidates it, and the rate limit middleware guards the whole surface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"catalog-service/internal/storage"
	"catalog-service/pkg/cache"
	"catalog-service/pkg/ratelimit"
)

// Server holds the handler dependencies.
type Server struct {
	repo     storage.Repository
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewServer creates the API server. cacheTTL applies to every cached read
// (0 uses the cache's default).
func NewServer(repo storage.Repository, c *cache.Cache, limiter *ratelimit.Limiter, cacheTTL time.Duration, logger zerolog.Logger) *Server {
	return &Server{
		repo:     repo,
		cache:    c,
		limiter:  limiter,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("POST /products", s.handleCreateProduct)
	mux.HandleFunc("GET /products/{id}", s.handleGetProduct)
	mux.HandleFunc("PUT /products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE /products/{id}", s.handleDeleteProduct)

	mux.HandleFunc("GET /orders", s.handleListOrders)
	mux.HandleFunc("POST /orders", s.handleCreateOrder)
	mux.HandleFunc("GET /orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PUT /orders/{id}", s.handleUpdateOrder)
	mux.HandleFunc("DELETE /orders/{id}", s.handleDeleteOrder)

	return s.limiter.Middleware(withRequestMetrics(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondJSON marshals v and writes it with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondRaw writes an already-serialized JSON payload, e.g. one that came
// out of the cache.
func respondRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorBody{Detail: detail})
}

// respondRepoError maps repository failures onto HTTP statuses. Store
// faults never reach this path; only genuine data errors do.
func (s *Server) respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("repository failure")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
