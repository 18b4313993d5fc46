package cache

import (
	"sync"
	"time"
)

// TTL is a small thread-safe expiring cache. The FX client uses it to avoid
// hammering the rate API for the same pair within one refresh interval.
type TTL struct {
	defaultTTL time.Duration
	items      map[string]*entry
	mu         sync.RWMutex
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// NewTTL creates a cache whose entries expire after defaultTTL unless a
// per-entry TTL is supplied.
func NewTTL(defaultTTL time.Duration) *TTL {
	return &TTL{
		defaultTTL: defaultTTL,
		items:      make(map[string]*entry),
	}
}

// Get returns the cached value if present and unexpired.
func (c *TTL) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value; ttl of 0 uses the cache default.
func (c *TTL) Set(key string, value interface{}, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.items[key] = &entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes a key.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clean drops all expired entries.
func (c *TTL) Clean() {
	now := time.Now()
	c.mu.Lock()
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

// Size returns the number of entries, expired or not.
func (c *TTL) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
