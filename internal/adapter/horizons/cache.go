package horizons

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
)

// CachedSource wraps an EphemerisSource with an in-memory LRU cache keyed by
// command, ephemeris type, and time window. Two requests for the same object
// and window inside the cache lifetime never hit the upstream twice.
type CachedSource struct {
	inner   domain.EphemerisSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around an ephemeris source.
func NewCachedSource(inner domain.EphemerisSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) FetchEphemeris(ctx context.Context, command string, typ domain.EphemerisType, w domain.QueryWindow) (string, error) {
	key := cacheKey(command, typ, w)
	if result, ok := c.cache.get(key); ok {
		c.metrics.CacheLookups.WithLabelValues(string(typ), "hit").Inc()
		return result, nil
	}
	c.metrics.CacheLookups.WithLabelValues(string(typ), "miss").Inc()

	result, err := c.inner.FetchEphemeris(ctx, command, typ, w)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient failures can be retried.
	if result != "" {
		c.cache.put(key, result)
	}
	return result, nil
}

func cacheKey(command string, typ domain.EphemerisType, w domain.QueryWindow) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		command, typ,
		w.Start.UTC().Format(time.RFC3339),
		w.Stop.UTC().Format(time.RFC3339),
		w.Step,
	)
}

// lruCache is a simple thread-safe LRU cache for raw result blobs.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
