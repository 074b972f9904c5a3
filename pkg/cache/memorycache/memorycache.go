package memorycache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/torii-authz/torii/pkg/cache"
)

// entry is one cached value with its expiry and accounted size
type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
	size      int64
}

// Cache implements an in-process LRU cache with TTL support. Decisions are
// tiny, so a simple list-backed LRU is predictable and fast enough.
type Cache struct {
	mu sync.Mutex

	items     map[string]*list.Element // key -> list element
	evictList *list.List               // front = most recent, back = least recent

	maxSize     int64 // maximum accounted size in bytes
	ttl         time.Duration
	currentSize int64

	metrics *cacheMetrics
}

type cacheMetrics struct {
	hits        uint64
	misses      uint64
	keysAdded   uint64
	keysEvicted uint64
}

// Config holds configuration for the memory cache.
type Config struct {
	// MaxSizeBytes is the maximum accounted size of cached items. When the
	// limit is exceeded, least recently used items are evicted.
	MaxSizeBytes int64

	// DefaultTTL is the fallback time-to-live when Set is called with a
	// zero TTL.
	DefaultTTL time.Duration

	// EnableMetrics enables collection of cache statistics.
	EnableMetrics bool
}

// New creates a new memory cache with the given configuration.
func New(config *Config) (*Cache, error) {
	c := &Cache{
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		maxSize:   config.MaxSizeBytes,
		ttl:       config.DefaultTTL,
	}

	if config.EnableMetrics {
		c.metrics = &cacheMetrics{}
	}

	return c, nil
}

// Get retrieves a value from cache.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		if c.metrics != nil {
			c.metrics.misses++
		}
		return nil, false
	}

	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		if c.metrics != nil {
			c.metrics.misses++
		}
		return nil, false
	}

	c.evictList.MoveToFront(elem)
	if c.metrics != nil {
		c.metrics.hits++
	}
	return ent.value, true
}

// Set stores a value in cache with the specified TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Rough size estimate: fixed overhead plus key length. Values are small
	// decision structs, so precise accounting is not worth the bookkeeping.
	size := int64(100 + len(key))

	if elem, exists := c.items[key]; exists {
		ent := elem.Value.(*entry)
		c.currentSize += size - ent.size
		ent.value = value
		ent.expiresAt = time.Now().Add(ttl)
		ent.size = size
		c.evictList.MoveToFront(elem)
		return nil
	}

	ent := &entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
		size:      size,
	}
	c.items[key] = c.evictList.PushFront(ent)
	c.currentSize += size

	if c.metrics != nil {
		c.metrics.keysAdded++
	}

	for c.currentSize > c.maxSize && c.evictList.Len() > 0 {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		if c.metrics != nil {
			c.metrics.keysEvicted++
		}
	}

	return nil
}

// Delete removes a value from cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
	c.currentSize = 0
	return nil
}

// Close releases resources (no-op for memory cache).
func (c *Cache) Close() error {
	return nil
}

// Metrics returns cache statistics.
func (c *Cache) Metrics() *cache.Metrics {
	if c.metrics == nil {
		return &cache.Metrics{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return &cache.Metrics{
		Hits:        c.metrics.hits,
		Misses:      c.metrics.misses,
		KeysAdded:   c.metrics.keysAdded,
		KeysEvicted: c.metrics.keysEvicted,
	}
}

// removeElement removes an element from cache (must be called with lock held).
func (c *Cache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*entry)
	delete(c.items, ent.key)
	c.currentSize -= ent.size
}

// Len returns the current number of items in cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Size returns the current accounted size in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}
