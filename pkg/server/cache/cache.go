// Package cache provides a TTL map with lazy expiry.
package cache

import (
	"sync"
	"time"

	"github.com/StrathCole/riskfeed/pkg/metrics"
)

// Entry is a cached value with its lifetime.
type Entry[V any] struct {
	Value     V
	CachedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer served at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// TTLCache maps string keys to values that stay readable for a fixed duration
// after their last write. Expired entries are ignored on read and only replaced
// by a later Set. It is safe for concurrent use.
type TTLCache[V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry[V]
}

// New creates a cache. name labels the hit/miss metrics.
func New[V any](name string, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry[V]),
	}
}

// WithClock replaces the time source and returns the cache.
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.now = now
	return c
}

// Get returns the value for key while it has not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.Expired(c.now()) {
		metrics.RecordCacheLookup(c.name, false)
		var zero V
		return zero, false
	}

	metrics.RecordCacheLookup(c.name, true)
	return entry.Value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache[V]) Set(key string, value V) {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = Entry[V]{
		Value:     value,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
