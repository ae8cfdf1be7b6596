// Package cache holds rendered-page view data keyed by request path, and the
// revalidation calls that drop it after a write.
package cache

import (
	"strings"
	"sync"
	"time"

	"makecommunity/internal/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Revalidator is told which page paths a write made stale.
type Revalidator interface {
	// RevalidatePath drops the cached data for path.
	RevalidatePath(path string)
	// RevalidateLayout drops everything rendered under the shared layout.
	RevalidateLayout()
}

type item struct {
	data      interface{}
	expiresAt time.Time
}

// PageCache is an LRU of page view data with a TTL. It is safe for
// concurrent use.
type PageCache struct {
	lru *lru.Cache[string, item]
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger

	// mu orders revalidations against Load's write-back. gens counts
	// revalidations per path; layout counts whole-cache purges.
	mu     sync.Mutex
	gens   map[string]uint64
	layout uint64

	lookups       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

func New(size int, ttl time.Duration) (*PageCache, error) {
	if size <= 0 {
		size = 500
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, err
	}
	return &PageCache{
		lru:  l,
		ttl:  ttl,
		now:  time.Now,
		log:  logger.New("cache"),
		gens: make(map[string]uint64),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_cache_lookups_total",
			Help: "Page cache lookups by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_cache_invalidations_total",
			Help: "Page cache revalidation calls by kind.",
		}, []string{"kind"}),
	}, nil
}

// Collectors returns the cache's metrics for registration.
func (c *PageCache) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.lookups, c.invalidations}
}

// Get returns the data cached for key, or false when missing or expired.
func (c *PageCache) Get(key string) (interface{}, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		c.lookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if c.now().After(v.expiresAt) {
		c.lru.Remove(key)
		c.lookups.WithLabelValues("expired").Inc()
		return nil, false
	}
	c.lookups.WithLabelValues("hit").Inc()
	return v.data, true
}

func (c *PageCache) Set(key string, data interface{}) {
	c.lru.Add(key, item{data: data, expiresAt: c.now().Add(c.ttl)})
}

// RevalidatePath drops path and any cached variants of it that differ only
// by query string.
func (c *PageCache) RevalidatePath(path string) {
	c.invalidations.WithLabelValues("path").Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[path]++
	c.lru.Remove(path)
	prefix := path + "?"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	c.log.Debug().Str(logger.Path, path).Msg("revalidated path")
}

// RevalidateLayout drops every entry, since every page shares the layout.
func (c *PageCache) RevalidateLayout() {
	c.invalidations.WithLabelValues("layout").Inc()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout++
	clear(c.gens)
	c.lru.Purge()
	c.log.Debug().Msg("revalidated layout")
}

func (c *PageCache) Len() int {
	return c.lru.Len()
}

type generation struct {
	layout, path uint64
}

// basePath strips the query string, since revalidating a path also drops
// its query variants.
func basePath(key string) string {
	if i := strings.IndexByte(key, '?'); i >= 0 {
		return key[:i]
	}
	return key
}

func (c *PageCache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{layout: c.layout, path: c.gens[basePath(key)]}
}

// setIfCurrent stores data unless key was revalidated after gen was taken.
func (c *PageCache) setIfCurrent(key string, data interface{}, gen generation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout != gen.layout || c.gens[basePath(key)] != gen.path {
		return false
	}
	c.Set(key, data)
	return true
}

// Load returns the cached value for key when present and of type T,
// otherwise calls fetch and caches its result. Errors are not cached, and
// neither is a result whose key was revalidated while fetch ran.
func Load[T any](c *PageCache, key string, fetch func() (T, error)) (T, error) {
	var gen generation
	if c != nil {
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
		gen = c.generation(key)
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if c != nil && !c.setIfCurrent(key, v, gen) {
		c.log.Debug().Str(logger.Path, key).Msg("skipped caching result revalidated during fetch")
	}
	return v, nil
}

var _ Revalidator = (*PageCache)(nil)
