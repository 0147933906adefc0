package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache is a process-local cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.expired(entry) {
		return nil, false, nil
	}
	return slices.Clone(entry.Data), true, nil
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.entry(data, ttl)
	return nil
}

// Add stores a value unless a live entry exists.
func (c *MemoryCache) Add(ctx context.Context, key string, data []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok && !c.expired(existing) {
		return false, nil
	}
	c.entries[key] = c.entry(data, ttl)
	return true, nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close does nothing.
func (c *MemoryCache) Close() error {
	return nil
}

func (c *MemoryCache) entry(data []byte, ttl time.Duration) cacheEntry {
	e := cacheEntry{Data: slices.Clone(data)}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl)
	}
	return e
}

func (c *MemoryCache) expired(e cacheEntry) bool {
	return !e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt)
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Adder = (*MemoryCache)(nil)
)
