package storage

import (
	"context"
	"sync"
	"time"

	"github.com/taskmesh/taskmesh/pkg/domain"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheEntries = 1024
)

type cacheEntry struct {
	resp      domain.TaskResponse
	expiresAt time.Time
}

// MemoryCache is an in-memory ResponseCache with per-entry TTL and a bounded
// size. Expired entries are dropped lazily on access; when the cache is full
// the oldest entry makes room for the new one.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// MemoryCacheOption customises MemoryCache construction.
type MemoryCacheOption func(*MemoryCache)

// WithTTL overrides the default 5 minute entry lifetime.
func WithTTL(ttl time.Duration) MemoryCacheOption {
	return func(c *MemoryCache) { c.ttl = ttl }
}

// WithMaxEntries overrides the default capacity of 1024 entries.
func WithMaxEntries(n int) MemoryCacheOption {
	return func(c *MemoryCache) { c.maxEntries = n }
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        defaultCacheTTL,
		maxEntries: defaultCacheEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		c.ttl = defaultCacheTTL
	}
	if c.maxEntries <= 0 {
		c.maxEntries = defaultCacheEntries
	}
	return c
}

// Get implements ResponseCache.
func (c *MemoryCache) Get(_ context.Context, key string) (domain.TaskResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.TaskResponse{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.remove(key)
		return domain.TaskResponse{}, false
	}
	return entry.resp, true
}

// Put implements ResponseCache.
func (c *MemoryCache) Put(_ context.Context, key string, resp domain.TaskResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.order) >= c.maxEntries {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{resp: resp, expiresAt: c.now().Add(c.ttl)}
}

// Len returns the number of live entries, expired ones included until they
// are touched.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
