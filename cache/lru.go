package cache

// NewLRU constructs a least-recently-used cache: Get and a value-replacing
// Insert both count as a use, moving the entry to the most-recently-used
// end; eviction takes the opposite end.
func NewLRU[K comparable, V any](maxsize int, initial []KV[K, V], opts ...Option[K, V]) *Cache[K, V] {
	return New(PolicyLRU, maxsize, initial, opts...)
}

// MostRecentlyUsed returns the current head of the recency list.
func (c *Cache[K, V]) MostRecentlyUsed() (key K, ok bool) {
	return c.First(0)
}

// LeastRecentlyUsed returns the entry LRU would evict next.
func (c *Cache[K, V]) LeastRecentlyUsed() (key K, ok bool) {
	return c.First(-1)
}
