// Package relcache implements the relation-cache adapter: a small,
// size-bounded memoization layer over a single SQL query, keyed by a
// human-readable name. It mirrors the original pool_create_relcache /
// pool_search_relcache API, generalized with Go generics so each caller
// (currently just pgversion) supplies its own register/unregister hooks
// and result type instead of casting void pointers.
package relcache

import (
	"container/list"
	"fmt"
	"sync"

	"poolcore/deepsize"
	"poolcore/log"
	"poolcore/metrics"
)

// Executor runs a single scalar SQL query against a backend session and
// returns the raw text result of its first column, first row.
type Executor interface {
	ExecuteScalarQuery(query string) (string, error)
}

// RegisterFunc converts a query's raw text result into the cached value.
type RegisterFunc[V any] func(raw string) (V, error)

// UnregisterFunc releases any resources held by a cached value when it is
// evicted. May be nil if V needs no cleanup.
type UnregisterFunc[V any] func(V)

// Cache is a size-bounded, FIFO-evicted memoization cache over one query.
type Cache[V any] struct {
	name       string
	query      string
	size       int
	register   RegisterFunc[V]
	unregister UnregisterFunc[V]

	mu      sync.Mutex
	entries map[string]V
	order   *list.List // keys in insertion order, front = oldest
	elems   map[string]*list.Element
}

// New creates a relation-cache entry for query, bounded to size entries.
// size <= 0 means unbounded.
func New[V any](name string, size int, query string, register RegisterFunc[V], unregister UnregisterFunc[V]) *Cache[V] {
	return &Cache[V]{
		name:       name,
		query:      query,
		size:       size,
		register:   register,
		unregister: unregister,
		entries:    make(map[string]V),
		order:      list.New(),
		elems:      make(map[string]*list.Element),
	}
}

// Search returns the cached value for key, executing Cache's query against
// exec and registering the result on a miss.
func (c *Cache[V]) Search(exec Executor, key string) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		// No reordering here: eviction order is insertion order (FIFO), not
		// recency of access, so a cache hit must not touch c.order.
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	raw, err := exec.ExecuteScalarQuery(c.query)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("relcache %q: query %q failed: %w", c.name, c.query, err)
	}

	value, err := c.register(raw)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("relcache %q: register %q: %w", c.name, raw, err)
	}

	c.mu.Lock()
	c.insertLocked(key, value)
	footprint := deepsize.OfEntries(c.entries)
	c.mu.Unlock()

	metrics.RelcacheMemoryBytes.WithLabelValues(c.name).Set(float64(footprint))
	log.WithComponent("relcache").Debug().Str("cache", c.name).Str("key", key).Msg("cache miss, registered new entry")

	return value, nil
}

func (c *Cache[V]) insertLocked(key string, value V) {
	if existing, ok := c.elems[key]; ok {
		c.order.MoveToBack(existing)
		c.entries[key] = value
		return
	}

	c.entries[key] = value
	c.elems[key] = c.order.PushBack(key)

	if c.size > 0 {
		for len(c.entries) > c.size {
			oldest := c.order.Front()
			if oldest == nil {
				break
			}
			oldestKey := oldest.Value.(string)
			if c.unregister != nil {
				c.unregister(c.entries[oldestKey])
			}
			delete(c.entries, oldestKey)
			delete(c.elems, oldestKey)
			c.order.Remove(oldest)
		}
	}
}

// Len reports the current number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
