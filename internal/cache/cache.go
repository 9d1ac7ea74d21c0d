package cache

import (
	"sync"
	"time"
)

// Cache is a mutex-guarded map whose entries carry an absolute expiry.
// Expired entries are dropped lazily on Get and in bulk by Sweep.
type Cache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val any
	exp time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.exp)
}

func New() *Cache {
	return &Cache{
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if e.expired(now) {
		c.dropIfExpired(key, now)
		return nil, false
	}

	return e.val, true
}

// dropIfExpired re-reads key under the write lock so an entry replaced
// since the read is kept.
func (c *Cache) dropIfExpired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.m[key]; ok && e.expired(now) {
		delete(c.m, key)
	}
}

// SetUntil stores val with an absolute expiry.
func (c *Cache) SetUntil(key string, val any, exp time.Time) {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: exp}
	c.mu.Unlock()
}

// Delete reports whether key was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.m[key]
	delete(c.m, key)
	c.mu.Unlock()

	return ok
}

// Sweep removes every entry expired at now and returns how many went.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
			n++
		}
	}

	return n
}
