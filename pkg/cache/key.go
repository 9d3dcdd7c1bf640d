package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces cache entries away from rate limiter state in the
// shared store.
const keyPrefix = "cache"

// Key identifies a cached read.
//
// An item read sets Resource and ID. A collection read sets Resource and
// Params (pagination, filters); the ID stays empty.
type Key struct {
	// Resource is the resource kind (e.g., "product", "order").
	Resource string

	// ID is the item identifier, empty for collection reads.
	ID string

	// Params are the query parameters of a collection read
	// (e.g., {"limit": "10", "offset": "0"}).
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: cache:resource:id for items,
// cache:resource:list:param1=val1:param2=val2 for collections.
//
// Params are sorted so that semantically identical reads always derive the
// same key.
func (k Key) String() string {
	parts := []string{keyPrefix, k.Resource}

	if k.ID != "" {
		parts = append(parts, k.ID)
		return strings.Join(parts, ":")
	}

	parts = append(parts, "list")

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}

// CollectionPattern returns the match pattern covering every collection key
// derived for the resource, regardless of pagination or filter shape.
// Writes invalidate this namespace rather than guessing individual query
// keys.
func (k Key) CollectionPattern() string {
	return keyPrefix + ":" + k.Resource + ":list*"
}

// validate rejects keys without a resource kind. An empty resource is a
// programming error at the call site, not a store condition.
func (k Key) validate() error {
	if k.Resource == "" {
		return ErrEmptyKey
	}
	return nil
}
