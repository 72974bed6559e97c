// Package dedup suppresses duplicate request processing.
package dedup

import "sync"

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 1000

// Cache is a bounded, insertion-ordered set of request identifiers that
// have already been handled. When capacity is exceeded, the oldest half is
// evicted in bulk, trading a small false-negative window for O(1) amortized
// eviction.
//
// Cache is scoped to a single process. A horizontally scaled deployment
// needs a shared store with the same atomic check-and-mark contract, or
// duplicate suppression degrades to the reward-fulfillment idempotency
// check as the last line of defense.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

// NewCache creates a cache holding at most capacity request ids.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Seen marks the request id as handled and reports whether it was already
// marked. Check and mark are a single atomic step: a concurrent second
// caller observes true even while the first caller is still processing.
func (c *Cache) Seen(requestID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[requestID]; ok {
		return true
	}

	if len(c.order) >= c.capacity {
		c.evictOldestHalf()
	}
	c.seen[requestID] = struct{}{}
	c.order = append(c.order, requestID)
	return false
}

// Forget unmarks a request that was abandoned before any side effect, so a
// caller retry is not spuriously suppressed. This is the one deliberate
// exception to mark-first.
func (c *Cache) Forget(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[requestID]; !ok {
		return
	}
	delete(c.seen, requestID)
	for i, key := range c.order {
		if key == requestID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len reports how many request ids are currently marked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// evictOldestHalf drops the oldest half of the marked ids. Caller holds mu.
func (c *Cache) evictOldestHalf() {
	keep := len(c.order) / 2
	if keep == 0 {
		keep = 1
	}
	cut := len(c.order) - keep
	for _, key := range c.order[:cut] {
		delete(c.seen, key)
	}
	remaining := make([]string, keep)
	copy(remaining, c.order[cut:])
	c.order = remaining
}
