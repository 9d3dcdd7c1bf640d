package cache

import (
	"time"
)

// Entry represents a memoized read result.
//
// An entry is only ever a projection of persisted data at some past
// instant; staleness up to the TTL, or up to the write-invalidation
// latency, is accepted and bounded.
type Entry struct {
	// Payload is the serialized result value.
	Payload []byte `json:"payload"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the entry has passed its expiry instant.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
