package embedding

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/upb/clearpath-assistant/internal/observability"
	"github.com/upb/clearpath-assistant/internal/rag"
)

// cacheEntry represents a single cache entry with TTL
type cacheEntry struct {
	vector     []float64
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(e.insertedAt) > ttl
}

// VectorCache is an in-memory LRU cache with TTL for query embeddings.
// Vectors are copied in and out so callers cannot mutate cached state.
type VectorCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// NewVectorCache creates a cache. ttl <= 0 disables expiry.
func NewVectorCache(maxSize int, ttl time.Duration) *VectorCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &VectorCache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached vector for text, or nil when missing or expired
func (c *VectorCache) Get(text string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[text]
	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(text)
		}
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++

	return append([]float64(nil), entry.vector...)
}

// Set stores a vector, evicting the least recently used entry when full
func (c *VectorCache) Set(text string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := append([]float64(nil), vector...)

	if entry, exists := c.entries[text]; exists {
		entry.vector = stored
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		vector:     stored,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(text)
	c.entries[text] = entry
}

// Clear removes all entries from the cache
func (c *VectorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// Stats returns cache statistics
func (c *VectorCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// removeEntry must be called with lock held
func (c *VectorCache) removeEntry(text string) {
	if entry, exists := c.entries[text]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, text)
	}
}

// evictLRU must be called with lock held
func (c *VectorCache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	text := back.Value.(string)
	c.lruList.Remove(back)
	delete(c.entries, text)
}

// CachedEmbedder serves repeated queries from a VectorCache
type CachedEmbedder struct {
	next    rag.Embedder
	cache   *VectorCache
	metrics *observability.Metrics
}

// NewCachedEmbedder wraps next. metrics may be nil.
func NewCachedEmbedder(next rag.Embedder, cache *VectorCache, metrics *observability.Metrics) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, metrics: metrics}
}

// Embed implements rag.Embedder. Failures are never cached.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v := e.cache.Get(text); v != nil {
		e.metrics.RecordEmbeddingCache(true)
		return v, nil
	}
	e.metrics.RecordEmbeddingCache(false)

	v, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) > 0 {
		e.cache.Set(text, v)
	}
	return v, nil
}
