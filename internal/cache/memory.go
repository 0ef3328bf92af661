package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/eqverify/internal/model"
)

// MemoryCache keeps verdicts in process memory only
type MemoryCache struct {
	cache  *gocache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemoryCache creates a new memory cache. A zero ttl keeps entries for the
// life of the process.
func NewMemoryCache(ttl time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves a verdict and marks it as cached
func (c *MemoryCache) Get(key string) (model.VerificationResult, bool) {
	if val, found := c.cache.Get(key); found {
		c.hits.Add(1)
		r := val.(model.VerificationResult)
		r.Cached = true
		return r, true
	}
	c.misses.Add(1)
	return model.VerificationResult{}, false
}

// Set stores a verdict with the default TTL. Verdicts that are not
// Cacheable are dropped.
func (c *MemoryCache) Set(key string, result model.VerificationResult) {
	if !Cacheable(result) {
		return
	}
	c.cache.SetDefault(key, result)
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}

// Stats returns the hit and miss counters
func (c *MemoryCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
