// Package cache provides a TTL-keyed in-memory cache for provider responses
// and derived results.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the time-to-live for weather payloads.
const DefaultTTL = time.Minute

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a concurrency-safe map with lazy TTL expiry. Expired entries
// behave as misses and stay in place until overwritten; the key space is
// bounded by distinct coordinate/query combinations during a session, so no
// background sweep is needed.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry

	ttl time.Duration
	now func() time.Time
}

// New creates a Cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		data: make(map[string]entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the stored value if it is younger than the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key, overwriting any previous entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{value: value, storedAt: c.now()}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
}
