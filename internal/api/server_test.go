package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"catalog-service/internal/storage"
	"catalog-service/internal/testutil"
	"catalog-service/pkg/cache"
	"catalog-service/pkg/ratelimit"
)

// newTestServer wires the full handler stack against the in-memory
// repository and the given Redis client. With an unreachable client every
// layer fails open, which keeps handler tests independent of a store.
func newTestServer(t *testing.T, redisClient *redis.Client) (*Server, *storage.MemoryRepository) {
	t.Helper()

	repo := storage.NewMemory()
	c := cache.New(redisClient, cache.Config{
		DefaultTTL:   30 * time.Second,
		StoreTimeout: 50 * time.Millisecond,
	}, zerolog.Nop())
	l := ratelimit.New(redisClient, ratelimit.Config{
		Limit:        1000,
		Window:       60 * time.Second,
		ExemptPaths:  []string{"/healthz", "/metrics"},
		StoreTimeout: 50 * time.Millisecond,
	}, zerolog.Nop())

	return NewServer(repo, c, l, 30*time.Second, zerolog.Nop()), repo
}

func newDegradedServer(t *testing.T) (*Server, *storage.MemoryRepository) {
	t.Helper()
	return newTestServer(t, testutil.UnreachableRedis(t))
}

// do issues a request against the full handler tree and decodes the JSON
// response into out when it is non-nil.
func do(t *testing.T, h http.Handler, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s %s response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func TestHandler_Health(t *testing.T) {
	s, _ := newDegradedServer(t)

	var body map[string]string
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil, &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf(`body = %v, want {"status":"ok"}`, body)
	}
	// Health is exempt from rate limiting.
	if rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Error("health endpoint should not carry rate limit headers")
	}
}

func TestHandler_RateLimitHeadersOnAPIRoutes(t *testing.T) {
	s, _ := newDegradedServer(t)

	rec := do(t, s.Handler(), http.MethodGet, "/products", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("API routes should carry rate limit headers")
	}
}

func TestHandler_InvalidID(t *testing.T) {
	s, _ := newDegradedServer(t)
	h := s.Handler()

	for _, path := range []string{"/products/abc", "/products/0", "/products/-3", "/orders/abc"} {
		rec := do(t, h, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestHandler_UnknownResource404(t *testing.T) {
	s, _ := newDegradedServer(t)
	h := s.Handler()

	var body errorBody
	rec := do(t, h, http.MethodGet, "/products/42", nil, &body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body.Detail == "" {
		t.Error("404 response missing detail")
	}

	if rec := do(t, h, http.MethodGet, "/orders/42", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /orders/42 status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/products/42", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("DELETE /products/42 status = %d, want 404", rec.Code)
	}
}
