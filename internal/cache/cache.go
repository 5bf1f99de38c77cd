// Package cache provides query-key normalization and a TTL-bounded LRU
// cache for generated answers, safe for concurrent access.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key        string
	value      Response
	insertedAt time.Time
}

// Response is a cached answer together with its hit provenance.
type Response struct {
	Text   string `json:"response"`
	Cached bool   `json:"cached"`
}

// Cache is a concurrent in-memory cache combining LRU eviction with
// per-entry TTL expiry. Expired entries are removed lazily on Get; there is
// no background sweeper.
type Cache struct {
	mu      sync.Mutex
	order   *list.List // most-recently-used at front
	entries map[string]*list.Element
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64

	now func() time.Time // test hook
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
	TTL     int     `json:"ttl"` // seconds
}

// New constructs a cache holding at most maxSize entries, each valid for ttl.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		order:   list.New(),
		entries: make(map[string]*list.Element, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached response for key, marking it most recently used.
// Missing or expired keys count as a miss; expired entries are deleted.
func (c *Cache) Get(key string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return Response{}, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return Response{}, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Set stores value under key at the most-recently-used position, replacing
// any existing entry, and evicts the least-recently-used entry if the cache
// is over capacity.
func (c *Cache) Set(key string, value Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	el := c.order.PushFront(&entry{key: key, value: value, insertedAt: c.now()})
	c.entries[key] = el
	if len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Clear empties the cache and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element, c.maxSize)
	c.hits = 0
	c.misses = 0
}

// Stats reports current size and hit/miss counters. It does not count as an
// access itself. HitRate is a percentage, 0 when the cache is untouched.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		TTL:     int(c.ttl / time.Second),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total) * 100
	}
	return s
}
