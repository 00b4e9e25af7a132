package metadata

import "sync"

// Cache stores fetched descriptor sets keyed by request. Values are JSON
// blobs so the in-memory and on-disk implementations share one interface.
//
// A cache is append-only for the duration of a session: entries are never
// invalidated mid-session, only replaced wholesale by Bust. Concurrent Put
// calls for the same key are benign because every writer computes the same
// value from the same immutable remote data.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	// Bust discards every entry. The only eviction the model defines.
	Bust() error
}

// MemoryCache is the default session-lifetime cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *MemoryCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *MemoryCache) Bust() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}
