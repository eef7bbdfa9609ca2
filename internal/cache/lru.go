package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/splash/internal/resource"
)

// LRUBlockCache is a BlockCache bounded by total block bytes.
type LRUBlockCache struct {
	mu       sync.Mutex
	capacity int64
	size     int64
	items    map[CacheKey]*list.Element
	order    *list.List
	rc       *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   CacheKey
	value []byte
}

var _ BlockCache = (*LRUBlockCache)(nil)

// NewLRUBlockCache creates a cache holding up to capacity bytes. When rc is
// non-nil every cached byte is also reserved there.
func NewLRUBlockCache(capacity int64, rc *resource.Controller) *LRUBlockCache {
	return &LRUBlockCache{
		capacity: capacity,
		items:    make(map[CacheKey]*list.Element),
		order:    list.New(),
		rc:       rc,
	}
}

// Get returns a cached block and marks it recently used.
func (c *LRUBlockCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.order.MoveToFront(el)
		return el.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches b under key, evicting least recently used blocks as needed.
// Blocks larger than the capacity, or refused by the controller, are
// silently dropped.
func (c *LRUBlockCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	n := int64(len(b))
	if n > c.capacity {
		return
	}
	for c.size+n > c.capacity {
		el := c.order.Back()
		if el == nil {
			break
		}
		c.removeElement(el)
	}
	if !c.rc.TryAcquireMemory(n) {
		return
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: b})
	c.size += n
}

// Invalidate removes entries matching the predicate.
func (c *LRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doomed []*list.Element
	for key, el := range c.items {
		if predicate(key) {
			doomed = append(doomed, el)
		}
	}
	for _, el := range doomed {
		c.removeElement(el)
	}
}

// Close drops every entry and returns the reserved memory.
func (c *LRUBlockCache) Close() error {
	c.Invalidate(func(CacheKey) bool { return true })
	return nil
}

// Stats returns hit and miss counters.
func (c *LRUBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the cached bytes.
func (c *LRUBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached blocks.
func (c *LRUBlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUBlockCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	e := el.Value.(*entry)
	delete(c.items, e.key)
	n := int64(len(e.value))
	c.size -= n
	c.rc.ReleaseMemory(n)
}
