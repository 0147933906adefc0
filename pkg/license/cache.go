package license

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shed/pkg/cache"
	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/observability"
)

// DefaultTTL is how long a resolved license stays cached.
const DefaultTTL = 30 * 24 * time.Hour

// DefaultUnknownTTL is how long a lookup that named no license stays
// cached. It never exceeds the cache TTL.
const DefaultUnknownTTL = 7 * 24 * time.Hour

const hookKey = "license"

// Entry is a cached research outcome.
type Entry struct {
	License      string      `json:"license"`
	Status       deps.Status `json:"status"`
	EvidenceURLs []string    `json:"evidence_urls"`
	Source       string      `json:"source,omitempty"`
}

// Cache stores resolved licenses per (ecosystem, normalized name). An
// in-process map answers repeated lookups within the process; the optional
// backend carries results across runs and processes.
//
// The first completed write for a key wins. Later writes for the same key
// are discarded and the stored entry is returned instead, so a known result
// never regresses.
type Cache struct {
	backend cache.Cache
	keyer   cache.Keyer
	ttl        time.Duration
	unknownTTL time.Duration
	logger     *log.Logger

	mu      sync.RWMutex
	entries map[deps.Key]Entry
}

// NewCache returns a Cache over backend. A nil backend keeps entries in
// memory only.
func NewCache(backend cache.Cache, ttl time.Duration, logger *log.Logger) *Cache {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{
		backend: backend,
		keyer:   cache.NewDefaultKeyer(),
		ttl:        ttl,
		unknownTTL: min(ttl, DefaultUnknownTTL),
		logger:     logger,
		entries:    make(map[deps.Key]Entry),
	}
}

// WithKeyer replaces the backend key scheme.
func (c *Cache) WithKeyer(k cache.Keyer) *Cache {
	c.keyer = k
	return c
}

// Get returns the entry for key from memory or the backend.
func (c *Cache) Get(ctx context.Context, key deps.Key) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		observability.Cache().OnCacheHit(ctx, hookKey)
		return e, true
	}

	err := cache.GetJSON(ctx, c.backend, c.backendKey(key), &e)
	switch {
	case err == nil:
		observability.Cache().OnCacheHit(ctx, hookKey)
		return c.remember(key, e), true
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		c.logger.Warn("license cache read failed", "key", key, "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, hookKey)
	return Entry{}, false
}

// Add stores e under key unless an entry exists, and returns the entry
// that is now authoritative for key. Entries without a license expire
// after the shorter unknown TTL.
func (c *Cache) Add(ctx context.Context, key deps.Key, e Entry) Entry {
	c.mu.RLock()
	existing, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return existing
	}

	bk := c.backendKey(key)
	ttl := c.ttl
	if e.License == "" {
		ttl = c.unknownTTL
	}
	stored, err := cache.AddJSON(ctx, c.backend, bk, e, ttl)
	switch {
	case err != nil:
		c.logger.Warn("license cache write failed", "key", key, "err", err)
	case stored:
		observability.Cache().OnCacheSet(ctx, hookKey, 1)
	default:
		var winner Entry
		if err := cache.GetJSON(ctx, c.backend, bk, &winner); err == nil {
			e = winner
		}
	}
	return c.remember(key, e)
}

// Len returns the number of entries held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close closes the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

func (c *Cache) remember(key deps.Key, e Entry) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = e
	return e
}

func (c *Cache) backendKey(key deps.Key) string {
	return c.keyer.LicenseKey(string(key.Ecosystem), key.Name)
}
