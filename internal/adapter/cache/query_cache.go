package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/port"
)

// QueryCache is a bounded LRU of query results with a TTL. Entries recorded
// before the last Invalidate are treated as misses.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
	now      func() time.Time

	hits, misses uint64
}

type cacheEntry struct {
	results   []domain.ScoredChunk
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	data := make([]byte, 8, 8+len(query))
	binary.BigEndian.PutUint64(data, uint64(topK))
	data = append(data, query...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query string, topK int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.moveToEnd(key)
	c.hits++
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(query string, topK int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		results:   cloneResults(results),
		timestamp: c.now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry and bumps the index generation.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since construction.
func (c *QueryCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func cloneResults(results []domain.ScoredChunk) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(results))
	copy(out, results)
	return out
}

var _ port.VectorIndex = (*CachedIndex)(nil)

// CachedIndex decorates a VectorIndex with a QueryCache. Build and Load
// invalidate the cache.
type CachedIndex struct {
	port.VectorIndex
	cache *QueryCache
}

func NewCachedIndex(index port.VectorIndex, cache *QueryCache) *CachedIndex {
	return &CachedIndex{
		VectorIndex: index,
		cache:       cache,
	}
}

func (r *CachedIndex) Build(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	defer r.cache.Invalidate()
	return r.VectorIndex.Build(ctx, chunks, embeddings)
}

func (r *CachedIndex) Load(ctx context.Context) error {
	defer r.cache.Invalidate()
	return r.VectorIndex.Load(ctx)
}

func (r *CachedIndex) Query(ctx context.Context, text string, topK int) ([]domain.ScoredChunk, error) {
	if results, hit := r.cache.Get(text, topK); hit {
		return results, nil
	}

	results, err := r.VectorIndex.Query(ctx, text, topK)
	if err != nil {
		return nil, err
	}

	r.cache.Put(text, topK, results)
	return results, nil
}

func (r *CachedIndex) Cache() *QueryCache {
	return r.cache
}
