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

const orderResource = "order"

type orderCreate struct {
	CustomerID int64                  `json:"customer_id"`
	Status     string                 `json:"status"`
	Items      []storage.NewOrderItem `json:"items"`
}

type orderUpdate struct {
	Status string `json:"status"`
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.OrderFilter{
		CustomerID: int64(atoiDefault(q.Get("customer_id"), 0)),
		Status:     q.Get("status"),
		Limit:      atoiDefault(q.Get("limit"), 10),
		Offset:     atoiDefault(q.Get("offset"), 0),
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(f.Limit))
	params.Set("offset", strconv.Itoa(f.Offset))
	if f.CustomerID > 0 {
		params.Set("customer_id", strconv.FormatInt(f.CustomerID, 10))
	}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	key := cache.Key{Resource: orderResource, Params: params}

	payload, err := s.cache.GetOrLoad(r.Context(), key, s.cacheTTL, func(ctx context.Context) ([]byte, error) {
		list, err := s.repo.ListOrders(ctx, f)
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

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	key := cache.Key{Resource: orderResource, ID: strconv.FormatInt(id, 10)}
	payload, err := s.cache.GetOrLoad(r.Context(), key, s.cacheTTL, func(ctx context.Context) ([]byte, error) {
		o, err := s.repo.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(o)
	})
	if err != nil {
		s.respondRepoError(w, err)
		return
	}
	respondRaw(w, http.StatusOK, payload)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in orderCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.Items) == 0 {
		respondError(w, http.StatusBadRequest, "order needs at least one item")
		return
	}

	order, err := s.repo.CreateOrder(r.Context(), in.CustomerID, in.Status, in.Items)
	if err != nil {
		s.respondRepoError(w, err)
		return
	}

	// Stock changed, so product listings are stale too.
	s.invalidateOrder(r.Context(), 0)
	_ = s.cache.InvalidatePattern(r.Context(), cache.Key{Resource: productResource}.CollectionPattern())

	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in orderUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Status == "" {
		respondError(w, http.StatusBadRequest, "status must not be empty")
		return
	}

	order, err := s.repo.UpdateOrderStatus(r.Context(), id, in.Status)
	if err != nil {
		s.respondRepoError(w, err)
		return
	}

	s.invalidateOrder(r.Context(), id)
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteOrder(r.Context(), id); err != nil {
		s.respondRepoError(w, err)
		return
	}

	// Deleting an order restores stock, so product listings are stale.
	s.invalidateOrder(r.Context(), id)
	_ = s.cache.InvalidatePattern(r.Context(), cache.Key{Resource: productResource}.CollectionPattern())

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) invalidateOrder(ctx context.Context, id int64) {
	if id > 0 {
		_ = s.cache.Invalidate(ctx, cache.Key{Resource: orderResource, ID: strconv.FormatInt(id, 10)})
	}
	_ = s.cache.InvalidatePattern(ctx, cache.Key{Resource: orderResource}.CollectionPattern())
}
