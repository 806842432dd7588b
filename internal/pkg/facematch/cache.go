package facematch

import (
	"container/list"
	"sync"
)

// DefaultCacheCapacity bounds how many parsed descriptors are kept in memory.
const DefaultCacheCapacity = 500

// Cache keeps parsed descriptor vectors so the stored reference descriptor is not
// re-parsed on every punch. Eviction is by insertion order: when the cache is full
// the oldest-inserted entry goes first. Re-setting a key counts as a fresh insert
// (delete + reinsert), reads do not refresh recency.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = oldest insert
}

type cacheEntry struct {
	key    string
	vector []float64
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached vector for key, if any. It does not refresh recency.
func (c *Cache) Get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*cacheEntry).vector, true
}

// Set inserts vec under key. An existing key is moved to the newest position.
// Insert and eviction happen under the same lock.
func (c *Cache) Set(key string, vec []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, vector: vec})

	for len(c.entries) > c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len reports the number of cached descriptors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrParse returns the cached vector for key, parsing and caching raw on a miss.
// An empty key bypasses the cache entirely, which is how single-use incoming
// descriptors are handled.
func (c *Cache) GetOrParse(key string, raw interface{}) []float64 {
	if key == "" {
		return ParseDescriptor(raw)
	}
	if vec, ok := c.Get(key); ok {
		return vec
	}
	vec := ParseDescriptor(raw)
	if vec != nil {
		c.Set(key, vec)
	}
	return vec
}
