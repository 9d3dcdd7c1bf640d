package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future", time.Now().Add(5 * time.Minute), false},
		{"past", time.Now().Add(-1 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{ExpiresAt: tt.expiresAt}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	entry := &Entry{ExpiresAt: time.Now().Add(10 * time.Second)}
	ttl := entry.TTL()
	if ttl <= 0 || ttl > 10*time.Second {
		t.Errorf("TTL() = %v, want within (0, 10s]", ttl)
	}

	expired := &Entry{ExpiresAt: time.Now().Add(-1 * time.Minute)}
	if got := expired.TTL(); got != 0 {
		t.Errorf("TTL() on expired entry = %v, want 0", got)
	}
}
