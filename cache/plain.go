package cache

// NewPlain constructs a policy-less cache: it never evicts. Once full, an
// Insert for an absent key fails with ErrCapacityExceeded instead of
// making room.
func NewPlain[K comparable, V any](maxsize int, initial []KV[K, V], opts ...Option[K, V]) *Cache[K, V] {
	return New(PolicyPlain, maxsize, initial, opts...)
}
