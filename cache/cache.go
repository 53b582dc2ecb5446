// Package cache holds finished enrichment results in memory, keyed by
// normalised URL, with per-entry TTLs and single-flight deduplication of
// concurrent enrichments for the same URL.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/linkhive/linkhive/models"
)

// entry holds a cached metadata record with its expiry.
type entry struct {
	metadata  *models.Metadata
	expiresAt time.Time
}

// Cache is an in-memory metadata cache. Safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	group      singleflight.Group
}

// New creates a Cache with the given maximum number of entries. A
// background goroutine evicts expired entries every 5 minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.cleanupLoop()
	return c
}

// Get retrieves cached metadata for the normalised URL if it is still live.
func (c *Cache) Get(key string) (*models.Metadata, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.metadata, true
}

// Set stores metadata under the key with the given TTL. Full results use
// the long TTL; fallback stubs pass a short one so a later retry can
// replace them quickly. At capacity a random entry is evicted (map
// iteration is random in Go).
func (c *Cache) Set(key string, md *models.Metadata, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		metadata:  md,
		expiresAt: time.Now().Add(ttl),
	}
}

// Invalidate removes the entry for the key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

// Do runs fn once per key no matter how many goroutines call Do with that
// key concurrently; all callers receive the same result. Concurrent
// enrichment requests for one URL therefore trigger one pipeline run.
func (c *Cache) Do(key string, fn func() (*models.Metadata, error)) (*models.Metadata, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Metadata), nil
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.store {
			if now.After(e.expiresAt) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
