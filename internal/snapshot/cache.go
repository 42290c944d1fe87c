package snapshot

import (
	"container/list"
	"sync"
)

// bucketKey identifies a computed bucket. The generation changes on every
// reload, so entries for an older snapshot are never served.
type bucketKey struct {
	generation uint64
	heightCM   int
}

// lruCache is a small thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int

	mu    sync.Mutex
	items map[K]*list.Element
	order *list.List // front is most recently used
}

type lruItem[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: max(maxEntries, 1),
		items:      make(map[K]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruItem[K, V]).value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruItem[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruItem[K, V]).key)
	}
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
