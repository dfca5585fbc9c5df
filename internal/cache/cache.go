// Package cache is a process-scoped TTL key-value cache.
//
// It is constructed explicitly and injected where needed; there is no
// package-level instance. Sessions and cached user info live here.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

type Cache struct {
	mu sync.RWMutex
	m  map[string]entry

	// now is swappable in tests.
	now func() time.Time
}

func New() *Cache {
	return &Cache{m: map[string]entry{}, now: time.Now}
}

// Set stores a value without expiry.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, 0)
}

// SetTTL stores a value expiring after ttl; ttl <= 0 means no expiry.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{value: value, expiresAt: exp}
	c.mu.Unlock()
}

// Get returns the live value for key. Expired entries read as absent and
// are dropped lazily.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.Delete(key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = map[string]entry{}
	c.mu.Unlock()
}
