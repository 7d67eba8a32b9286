// Package memory implements the buffer pool: a bounded, transaction-aware
// page cache fronting all heap file access.
package memory

import (
	"sync"

	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
)

// node is one entry of the LRU list.
type node struct {
	key  primitives.PageKey
	page page.Page
	prev *node
	next *node
}

// LRUPageCache is a page cache with least-recently-used ordering: a hash
// map for O(1) lookup over a doubly linked list with sentinel head (most
// recent) and tail (least recent). The map and the list always hold
// exactly the same set of pages.
//
// The cache itself never evicts; the store drives eviction through
// RemoveTail so that the NO-STEAL dirty-page check stays with the caller.
type LRUPageCache struct {
	cache map[primitives.PageKey]*node
	head  *node // sentinel, most recently used end
	tail  *node // sentinel, least recently used end
	mutex sync.Mutex
}

// NewLRUPageCache creates an empty cache.
func NewLRUPageCache() *LRUPageCache {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &LRUPageCache{
		cache: make(map[primitives.PageKey]*node),
		head:  head,
		tail:  tail,
	}
}

func (c *LRUPageCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUPageCache) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// Get returns the cached page and promotes it to most recently used.
func (c *LRUPageCache) Get(key primitives.PageKey) (page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	c.unlink(n)
	c.addToFront(n)
	return n.page, true
}

// Peek returns the cached page without touching the LRU order. Flush and
// rollback walks use it so that bookkeeping passes do not look like
// access recency.
func (c *LRUPageCache) Peek(key primitives.PageKey) (page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	return n.page, true
}

// Put inserts or replaces a page and makes it most recently used.
func (c *LRUPageCache) Put(key primitives.PageKey, p page.Page) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[key]; exists {
		n.page = p
		c.unlink(n)
		c.addToFront(n)
		return
	}

	n := &node{key: key, page: p}
	c.cache[key] = n
	c.addToFront(n)
}

// Remove drops a page from the cache if present.
func (c *LRUPageCache) Remove(key primitives.PageKey) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[key]; exists {
		delete(c.cache, key)
		c.unlink(n)
	}
}

// RemoveTail pops the least recently used page. The caller decides whether
// to discard it or, for a dirty page, Put it back (which re-inserts at the
// most recently used end).
func (c *LRUPageCache) RemoveTail() (primitives.PageKey, page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	n := c.tail.prev
	if n == c.head {
		return primitives.PageKey{}, nil, false
	}

	c.unlink(n)
	delete(c.cache, n.key)
	return n.key, n.page, true
}

// Size returns the number of cached pages.
func (c *LRUPageCache) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.cache)
}

// Keys returns the cached page keys, least recently used first.
func (c *LRUPageCache) Keys() []primitives.PageKey {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	keys := make([]primitives.PageKey, 0, len(c.cache))
	for n := c.tail.prev; n != c.head; n = n.prev {
		keys = append(keys, n.key)
	}
	return keys
}
