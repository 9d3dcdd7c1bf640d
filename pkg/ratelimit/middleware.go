package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// BypassHeader lets authorized clients skip rate limiting when it carries
// the configured token.
const BypassHeader = "X-RateLimit-Bypass"

// rejectionBody is the 429 response payload.
type rejectionBody struct {
	Detail  string `json:"detail"`
	Limit   int    `json:"limit"`
	ResetIn int    `json:"reset_in"`
}

// Middleware evaluates every request before the wrapped handler runs.
// Exempt paths and bypass-token requests pass through untouched. All other
// responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset; rejections answer 429 with a JSON body.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.IsExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if token := r.Header.Get(BypassHeader); token != "" && token == l.cfg.BypassToken {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := l.Evaluate(r.Context(), ClientKey(r), time.Now())
		if err != nil {
			// Only reachable with an empty client key; admit rather than
			// punish the client for a server-side bug.
			next.ServeHTTP(w, r)
			return
		}

		resetIn := int(time.Until(decision.ResetAt).Seconds())
		if resetIn < 0 {
			resetIn = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

		if !decision.Allowed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejectionBody{
				Detail:  "Rate limit exceeded",
				Limit:   decision.Limit,
				ResetIn: resetIn,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientKey derives the rate limit identity for a request: client IP plus
// request path, so distinct endpoints consume distinct windows. Behind a
// proxy the first X-Forwarded-For hop wins; otherwise the connection's
// remote address is used.
func ClientKey(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	}
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}
	return ip + ":" + r.URL.Path
}
