package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved tenants between requests so the provider is not hit
// on every call.
type Cache interface {
	Get(ctx context.Context, slug string) (*Tenant, bool)
	Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration)
	Delete(ctx context.Context, slug string)
	Close() error
}

// DefaultCacheSize bounds the in-memory cache.
const DefaultCacheSize = 1000

type memoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	order   []string // least recently used first
	maxSize int
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// NewInMemoryCache returns a TTL cache with LRU eviction and a background
// sweep of expired entries.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	c := &memoryCache{
		items:   make(map[string]cacheItem),
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *memoryCache) Get(ctx context.Context, slug string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[slug]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, slug)
		c.unlink(slug)
		return nil, false
	}

	c.touch(slug)
	return item.tenant, true
}

func (c *memoryCache) Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[slug]; !ok && len(c.items) >= c.maxSize && len(c.order) > 0 {
		evict := c.order[0]
		c.order = c.order[1:]
		delete(c.items, evict)
	}

	c.items[slug] = cacheItem{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.touch(slug)
}

func (c *memoryCache) Delete(ctx context.Context, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, slug)
	c.unlink(slug)
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *memoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for slug, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, slug)
			c.unlink(slug)
		}
	}
}

func (c *memoryCache) touch(slug string) {
	c.unlink(slug)
	c.order = append(c.order, slug)
}

func (c *memoryCache) unlink(slug string) {
	for i, s := range c.order {
		if s == slug {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// noopCache disables caching; every lookup goes to the provider.
type noopCache struct{}

// NewNoopCache returns a cache that never stores anything.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string) (*Tenant, bool)          { return nil, false }
func (noopCache) Set(context.Context, string, *Tenant, time.Duration)  {}
func (noopCache) Delete(context.Context, string)                       {}
func (noopCache) Close() error                                         { return nil }
