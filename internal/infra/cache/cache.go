// Package cache provides a simple in-memory TTL cache.
// Entries expire a fixed TTL after they were last written or touched.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu      sync.RWMutex
	items   map[string]entry[T]
	ttl     time.Duration
	onEvict func(key string, value T)

	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a new in-memory cache with the given TTL.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	// Background cleanup goroutine
	go c.cleanup()
	return c
}

// OnEvict registers fn to run, outside the lock, whenever an entry is
// deleted or expires.
func (c *InMemory[T]) OnEvict(fn func(key string, value T)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvict = fn
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Touch extends a live entry by one TTL and reports whether it was found.
func (c *InMemory[T]) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return false
	}
	e.expiresAt = time.Now().Add(c.ttl)
	c.items[key] = e
	return true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a value from the cache and reports whether it was present.
func (c *InMemory[T]) Delete(key string) bool {
	c.mu.Lock()
	e, ok := c.items[key]
	delete(c.items, key)
	onEvict := c.onEvict
	c.mu.Unlock()

	if ok && onEvict != nil {
		onEvict(key, e.value)
	}
	return ok
}

// Len counts stored entries, including expired ones not yet cleaned up.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Close stops the cleanup goroutine. The cache stays usable.
func (c *InMemory[T]) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *InMemory[T]) evictExpired() {
	c.mu.Lock()
	now := time.Now()
	expired := make(map[string]T)
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			expired[k] = v.value
			delete(c.items, k)
		}
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict == nil {
		return
	}
	for k, v := range expired {
		onEvict(k, v)
	}
}
