package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"catalog-service/internal/storage"
	"catalog-service/pkg/cache"
)

const productResource = "product"

type productCreate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// productUpdate uses pointers so absent fields keep their current values.
type productUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.ProductFilter{
		Search: q.Get("search"),
		Limit:  atoiDefault(q.Get("limit"), 10),
		Offset: atoiDefault(q.Get("offset"), 0),
	}

	// Key on the normalized filter, not the raw query string, so
	// "?limit=10" and no query derive the same key.
	params := url.Values{}
	params.Set("limit", strconv.Itoa(f.Limit))
	params.Set("offset", strconv.Itoa(f.Offset))
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	key := cache.Key{Resource: productResource, Params: params}

	payload, err := s.cache.GetOrLoad(r.Context(), key, s.cacheTTL, func(ctx context.Context) ([]byte, error) {
		list, err := s.repo.ListProducts(ctx, f)
		if err != nil {
			return nil, err
		}
		return json.Marshal(list)
	})
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, payload)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	key := cache.Key{Resource: productResource, ID: strconv.FormatInt(id, 10)}
	payload, err := s.cache.GetOrLoad(r.Context(), key, s.cacheTTL, func(ctx context.Context) ([]byte, error) {
		p, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	})
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, payload)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in productCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &storage.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := s.repo.CreateProduct(r.Context(), p); err != nil {
		s.respondRepoError(w, err)
		return
	}

	s.invalidateProduct(r.Context(), 0)
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in productUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.repo.GetProduct(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	if err := s.repo.UpdateProduct(r.Context(), p); err != nil {
		s.respondRepoError(w, err)
		return
	}

	s.invalidateProduct(r.Context(), id)
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteProduct(r.Context(), id); err != nil {
		s.respondRepoError(w, err)
		return
	}

	s.invalidateProduct(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// invalidateProduct removes the single-item entry (when id > 0) and the
// whole collection namespace. Runs synchronously before the response so
// staleness is bounded by invalidation latency, not TTL.
func (s *Server) invalidateProduct(ctx context.Context, id int64) {
	if id > 0 {
		_ = s.cache.Invalidate(ctx, cache.Key{Resource: productResource, ID: strconv.FormatInt(id, 10)})
	}
	_ = s.cache.InvalidatePattern(ctx, cache.Key{Resource: productResource}.CollectionPattern())
}

// pathID parses the {id} path segment, answering 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
