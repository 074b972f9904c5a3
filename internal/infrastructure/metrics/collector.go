package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/torii-authz/torii/pkg/cache"
	"github.com/torii-authz/torii/pkg/cache/memorycache"
)

// Collector collects and aggregates metrics for the application.
type Collector struct {
	// HTTP metrics, keyed by "METHOD route"
	httpRequests sync.Map // map[string]*uint64
	httpErrors   sync.Map // map[string]*uint64
	httpDuration sync.Map // map[string]*durationValue

	// Decision outcomes
	decisionsAllowed uint64
	decisionsDenied  uint64

	// Cache reference (optional, for querying cache-specific metrics)
	cache cache.Cache
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds decision cache performance metrics.
type CacheMetrics struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int64
	MemoryBytes int64
	Evictions   uint64
}

// HTTPMetrics holds HTTP request metrics.
type HTTPMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache cache.Cache) {
	c.cache = cache
}

// RecordRequest records an HTTP request.
func (c *Collector) RecordRequest(route string) {
	counter := c.getOrCreateCounter(&c.httpRequests, route)
	atomic.AddUint64(counter, 1)
}

// RecordError records an HTTP request that failed server-side.
func (c *Collector) RecordError(route string) {
	counter := c.getOrCreateCounter(&c.httpErrors, route)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of an HTTP request in seconds.
func (c *Collector) RecordDuration(route string, durationSeconds float64) {
	val, _ := c.httpDuration.LoadOrStore(route, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// RecordDecision records a decision outcome.
func (c *Collector) RecordDecision(allowed bool) {
	if allowed {
		atomic.AddUint64(&c.decisionsAllowed, 1)
	} else {
		atomic.AddUint64(&c.decisionsDenied, 1)
	}
}

// GetDecisionCounts returns the decision outcome counts (allowed, denied).
func (c *Collector) GetDecisionCounts() (uint64, uint64) {
	return atomic.LoadUint64(&c.decisionsAllowed), atomic.LoadUint64(&c.decisionsDenied)
}

// GetCacheMetrics returns current decision cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	if c.cache == nil {
		return &CacheMetrics{}
	}

	metrics := c.cache.Metrics()
	if metrics == nil {
		return &CacheMetrics{}
	}

	result := &CacheMetrics{
		Hits:      metrics.Hits,
		Misses:    metrics.Misses,
		HitRate:   metrics.HitRate(),
		Evictions: metrics.KeysEvicted,
	}

	if memCache, ok := c.cache.(*memorycache.Cache); ok {
		result.KeysCurrent = int64(memCache.Len())
		result.MemoryBytes = memCache.Size()
	}

	return result
}

// GetHTTPMetrics returns current HTTP metrics.
func (c *Collector) GetHTTPMetrics() *HTTPMetrics {
	result := &HTTPMetrics{
		RequestCounts:        make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.httpRequests.Range(func(key, value interface{}) bool {
		result.RequestCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.httpErrors.Range(func(key, value interface{}) bool {
		result.ErrorCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.httpDuration.Range(func(key, value interface{}) bool {
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[key.(string)] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
