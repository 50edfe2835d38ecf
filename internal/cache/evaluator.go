// Package cache memoises scenario evaluations by input digest.
package cache

import (
	"context"
	"sync"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

// CachedEvaluator wraps an Evaluator with an in-memory LRU keyed by
// workflow.Request.Key.
type CachedEvaluator struct {
	inner   workflow.Evaluator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedEvaluator creates a cache decorator around an evaluator. metrics
// may be nil.
func NewCachedEvaluator(inner workflow.Evaluator, maxEntries int, metrics *observability.Metrics) *CachedEvaluator {
	return &CachedEvaluator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Evaluate returns the cached evaluation for an identical request or runs
// the inner evaluator. Errors are not cached.
func (c *CachedEvaluator) Evaluate(ctx context.Context, req workflow.Request) (*workflow.Evaluation, error) {
	key := req.Key()
	if ev, ok := c.cache.get(key); ok {
		c.observe("hit")
		return ev, nil
	}
	c.observe("miss")
	ev, err := c.inner.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, ev)
	return ev, nil
}

// Len reports the number of cached evaluations.
func (c *CachedEvaluator) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

func (c *CachedEvaluator) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// lruCache is a thread-safe LRU of evaluations.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *workflow.Evaluation
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*workflow.Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *workflow.Evaluation) {
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
	c.unlink(e)
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

func (c *lruCache) unlink(e *entry) {
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
	c.unlink(c.tail)
}
