// Package lookup serves geographic reference data pulled from external
// services: the Chilean DPA (regiones and comunas) and a worldwide airport
// dataset. Both sources change rarely, so responses are cached in memory for
// a day and the upstreams are only hit on cold or expired entries.
package lookup

import (
	"sync"
	"time"
)

// DefaultTTL is how long a cached upstream response stays fresh.
const DefaultTTL = 24 * time.Hour

type entry[T any] struct {
	value   T
	expires time.Time
}

// Cache is a small TTL cache keyed by string. The clock is injectable so
// expiry can be tested without sleeping.
type Cache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[T]
}

// NewCache builds a cache with the given TTL. A non-positive TTL falls back
// to DefaultTTL.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		var zero T
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key for the cache's TTL.
func (c *Cache[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: v, expires: c.now().Add(c.ttl)}
}
