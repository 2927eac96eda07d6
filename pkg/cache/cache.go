// Package cache provides a generic, thread-safe LRU cache with optional
// expiry.
package cache

import (
	"container/list"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/objkit/errors"
)

// EvictCallback is called with every entry removed by capacity or expiry.
// It runs outside the cache lock.
type EvictCallback[V any] func(key string, value V)

// Option configures an LRU.
type Option[V any] func(*LRU[V])

// WithTTL expires entries ttl after they were last set. Zero disables expiry.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *LRU[V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithEvictionCallback sets the eviction callback.
func WithEvictionCallback[V any](fn EvictCallback[V]) Option[V] {
	return func(c *LRU[V]) { c.onEvict = fn }
}

// WithReplaceCallback sets a callback called with the previous value when
// Set overwrites a live key. It runs outside the cache lock.
func WithReplaceCallback[V any](fn EvictCallback[V]) Option[V] {
	return func(c *LRU[V]) { c.onReplace = fn }
}

// withClock replaces time.Now in tests.
func withClock[V any](now func() time.Time) Option[V] {
	return func(c *LRU[V]) { c.now = now }
}

// Stats are counters of a cache's lifetime.
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// LRU evicts the least recently used entry beyond its maximum size.
type LRU[V any] struct {
	mu        sync.Mutex
	maxSize   int
	items     map[string]*list.Element
	order     *list.List // front is most recent
	ttl       time.Duration
	now       func() time.Time
	onEvict   EvictCallback[V]
	onReplace EvictCallback[V]

	hits, misses, sets, evictions atomic.Int64
}

// NewLRU creates a cache of at most maxSize entries; maxSize must be
// positive.
func NewLRU[V any](maxSize int, opts ...Option[V]) (*LRU[V], error) {
	if maxSize <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewLRU", "max size must be positive")
	}
	c := &LRU[V]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Get returns the value under key and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		e := el.Value.(*entry[V])
		if c.expired(e) {
			c.remove(el)
			c.mu.Unlock()
			c.misses.Add(1)
			c.evicted(e)
			var zero V
			return zero, false
		}
		c.order.MoveToFront(el)
		v := e.value
		c.mu.Unlock()
		c.hits.Add(1)
		return v, true
	}
	c.mu.Unlock()
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores value under key and reports whether the key is new.
func (c *LRU[V]) Set(key string, value V) (bool, error) {
	if key == "" {
		return false, errors.WrapInvalid(errors.ErrInvalidData, "cache", "Set", "key cannot be empty")
	}
	c.sets.Add(1)

	c.mu.Lock()
	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		old := e.value
		e.value, e.expires = value, expires
		c.order.MoveToFront(el)
		c.mu.Unlock()
		if c.onReplace != nil {
			c.onReplace(key, old)
		}
		return false, nil
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expires: expires})
	var victim *entry[V]
	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		victim = oldest.Value.(*entry[V])
		c.remove(oldest)
	}
	c.mu.Unlock()

	if victim != nil {
		c.evicted(victim)
	}
	return true, nil
}

// Delete removes key and reports whether it existed. The eviction callback
// is not called.
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if ok {
		c.remove(el)
	}
	return ok
}

// Keys returns the live keys, most recently used first.
func (c *LRU[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		if e := el.Value.(*entry[V]); !c.expired(e) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// SortedKeys returns Keys in lexical order.
func (c *LRU[V]) SortedKeys() []string {
	keys := c.Keys()
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored entries, expired ones included until
// they are touched.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes every entry without calling the eviction callback.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	c.order.Init()
}

// Stats returns the lifetime counters.
func (c *LRU[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *LRU[V]) expired(e *entry[V]) bool {
	return !e.expires.IsZero() && c.now().After(e.expires)
}

func (c *LRU[V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}

func (c *LRU[V]) evicted(e *entry[V]) {
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}
