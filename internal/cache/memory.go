package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process StringStore for single-instance deployments
// without Redis. Entries expire after ttl.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates a store whose entries live for ttl (default: 1h)
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStore{items: gocache.New(ttl, 2*ttl)}
}

// GetStrings returns the unexpired entries among keys
func (m *MemoryStore) GetStrings(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.items.Get(k); ok {
			out[k] = v.(string)
		}
	}
	return out, nil
}

// SetStrings stores values with the default expiration
func (m *MemoryStore) SetStrings(_ context.Context, values map[string]string) error {
	for k, v := range values {
		m.items.SetDefault(k, v)
	}
	return nil
}

// Len returns the number of cached entries, expired ones included until cleanup
func (m *MemoryStore) Len() int {
	return m.items.ItemCount()
}
