package search

import (
	"context"
	"sync"
	"time"

	"karaokesearch/internal/domain"
)

// Cache stores finished search responses keyed by normalized request.
type Cache interface {
	Get(ctx context.Context, key string) (domain.SearchResponse, bool)
	Set(ctx context.Context, key string, resp domain.SearchResponse)
}

type memCacheEntry struct {
	resp      domain.SearchResponse
	expiresAt time.Time
}

// MemCache is a process-local TTL cache. Entries are evicted lazily on read
// and by a background janitor.
type MemCache struct {
	mu      sync.RWMutex
	entries map[string]memCacheEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

func NewMemCache(ttl time.Duration) *MemCache {
	c := &MemCache{
		entries: map[string]memCacheEntry{},
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *MemCache) Get(_ context.Context, key string) (domain.SearchResponse, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return domain.SearchResponse{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return domain.SearchResponse{}, false
	}
	return entry.resp, true
}

func (c *MemCache) Set(_ context.Context, key string, resp domain.SearchResponse) {
	c.mu.Lock()
	c.entries[key] = memCacheEntry{resp: resp, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
