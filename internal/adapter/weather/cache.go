package weather

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

// CachedSolarSource wraps a SolarSource with an in-memory LRU cache. Solar
// resource data are long-term averages, so entries never expire.
type CachedSolarSource struct {
	inner   SolarSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSolarSource creates a cache decorator around a solar source.
func NewCachedSolarSource(inner SolarSource, maxEntries int, metrics *observability.Metrics) *CachedSolarSource {
	return &CachedSolarSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// SolarResource implements SolarSource.
func (c *CachedSolarSource) SolarResource(ctx context.Context, lat, lon float64) (SolarResource, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if result, ok := c.cache.get(key); ok {
		c.metrics.SolarCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.SolarCache.WithLabelValues("miss").Inc()

	result, err := c.inner.SolarResource(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	c.cache.put(key, result)
	return result, nil
}

// lruCache is a small thread-safe LRU of solar resources keyed by site.
type lruCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	items map[string]*list.Element
}

type cached struct {
	site     string
	resource SolarResource
}

func newLRUCache(limit int) *lruCache {
	return &lruCache{
		limit: max(limit, 1),
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *lruCache) get(site string) (SolarResource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[site]
	if !ok {
		return SolarResource{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).resource, true
}

func (c *lruCache) put(site string, resource SolarResource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[site]; ok {
		el.Value.(*cached).resource = resource
		c.order.MoveToFront(el)
		return
	}
	c.items[site] = c.order.PushFront(&cached{site: site, resource: resource})

	if c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cached).site)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
