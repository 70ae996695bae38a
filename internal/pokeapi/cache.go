package pokeapi

import (
	"container/list"
	"sync"
	"time"
)

// boundedCache is a size- and age-bounded LRU. Reference data fetched from
// the API must not accumulate without bound for the lifetime of the process.
type boundedCache struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List
	items map[string]*list.Element
}

type cacheEntry struct {
	key     string
	value   any
	addedAt time.Time
}

func newBoundedCache(capacity int, ttl time.Duration) *boundedCache {
	if capacity <= 0 {
		capacity = 64
	}
	return &boundedCache{
		cap:   capacity,
		ttl:   ttl,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *boundedCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && time.Since(entry.addedAt) > c.ttl {
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.value, true
}

func (c *boundedCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).value = value
		el.Value.(*cacheEntry).addedAt = time.Now()
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, value: value, addedAt: time.Now()})
	c.items[key] = el

	for c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *boundedCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
