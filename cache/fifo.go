package cache

// NewFIFO constructs a first-in-first-out cache: the oldest live insertion
// is evicted first, regardless of access pattern.
func NewFIFO[K comparable, V any](maxsize int, initial []KV[K, V], opts ...Option[K, V]) *Cache[K, V] {
	return New(PolicyFIFO, maxsize, initial, opts...)
}

// Oldest returns the next entry FIFO would evict, without removing it.
func (c *Cache[K, V]) Oldest() (key K, ok bool) {
	return c.First(0)
}

// Newest returns the most recently inserted entry.
func (c *Cache[K, V]) Newest() (key K, ok bool) {
	return c.First(-1)
}
