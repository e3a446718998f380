package iocache

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
)

// cacheEntry is one cached metric with its absolute expiry.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// MetricsCache is an in-memory key/value cache with per-entry lifetimes.
// Expiry is lazy: an entry past its deadline is never returned and is evicted
// on the next read or invalidation that touches it. There is no background sweeper.
type MetricsCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

var _ contract.MetricsCache = &MetricsCache{} // Compile-time check

// MetricsCacheOption configures a MetricsCache.
type MetricsCacheOption func(*MetricsCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MetricsCacheOption {
	return func(c *MetricsCache) {
		c.now = now
	}
}

// NewMetricsCache creates an empty cache.
func NewMetricsCache(opts ...MetricsCacheOption) *MetricsCache {
	c := &MetricsCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// expired reports whether the entry is past its deadline at now.
func (e cacheEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Store inserts or replaces key. The entry is visible until now+ttl inclusive.
// A non-positive ttl removes the key instead, since the entry could never be read.
func (c *MetricsCache) Store(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the live value for key. Missing and expired keys both report false.
func (c *MetricsCache) Get(key string) (any, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if entry.expired(now) {
		c.evictIfExpired(key, now)
		return nil, false
	}
	return entry.value, true
}

// evictIfExpired deletes key if it is still expired; a concurrent Store may have refreshed it.
func (c *MetricsCache) evictIfExpired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok && entry.expired(now) {
		delete(c.entries, key)
	}
}

// Remove deletes key if present.
func (c *MetricsCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// RemovePrefix deletes every key starting with prefix under a single lock and returns
// how many live entries were removed. Expired entries are evicted but not counted.
func (c *MetricsCache) RemovePrefix(prefix string) int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !entry.expired(now) {
			removed++
		}
		delete(c.entries, key)
	}
	return removed
}

// Keys returns a sorted snapshot of all keys, possibly including expired ones not yet evicted.
func (c *MetricsCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.entries))
}

// Len returns the number of stored entries, expired or not.
func (c *MetricsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *MetricsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Status summarizes the cache contents.
func (c *MetricsCache) Status() schema.CacheStatus {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	status := schema.CacheStatus{TotalEntries: len(c.entries)}
	for _, entry := range c.entries {
		if entry.expired(now) {
			status.ExpiredEntries++
			continue
		}
		if status.NextExpiry.IsZero() || entry.expiresAt.Before(status.NextExpiry) {
			status.NextExpiry = entry.expiresAt
		}
	}
	return status
}
