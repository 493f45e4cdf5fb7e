package cache

// Iterator walks a snapshot of a Cache's entries taken at the moment
// Iterate was called, in that policy's natural order: insertion order for
// FIFO/TTL, most-recently-used-first for LRU, stable-but-unspecified for
// LFU/VTTL/RR/Plain. It holds no lock between calls; if the cache is
// structurally modified (any Insert, Remove, Drain, Clear, ShrinkToFit, or
// eviction) after the snapshot was taken, Next reports
// ErrConcurrentModification instead of silently iterating stale data.
type Iterator[K comparable, V any] struct {
	c          *Cache[K, V]
	generation uint64
	snapshot   []KV[K, V]
	pos        int
}

// Iterate returns an Iterator over a snapshot of the cache's current
// entries. The snapshot itself does not count as a use for LRU/LFU.
func (c *Cache[K, V]) Iterate() *Iterator[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	order := c.orderedLiveIndices()
	snapshot := make([]KV[K, V], len(order))

	for i, idx := range order {
		s := &c.slots[idx]
		snapshot[i] = KV[K, V]{Key: s.key, Value: s.value}
	}

	return &Iterator[K, V]{c: c, generation: c.generation, snapshot: snapshot}
}

// Next returns the next entry in the snapshot. ok is false once the
// snapshot is exhausted. err is ErrConcurrentModification if the cache has
// been structurally modified since Iterate was called; once returned, it
// is returned on every subsequent call too.
func (it *Iterator[K, V]) Next() (kv KV[K, V], ok bool, err error) {
	it.c.mu.Lock()
	current := it.c.generation
	it.c.mu.Unlock()

	if current != it.generation {
		return KV[K, V]{}, false, ErrConcurrentModification
	}

	if it.pos >= len(it.snapshot) {
		return KV[K, V]{}, false, nil
	}

	kv = it.snapshot[it.pos]
	it.pos++

	return kv, true, nil
}

// Remaining reports how many snapshot entries Next has not yet returned.
func (it *Iterator[K, V]) Remaining() int {
	return len(it.snapshot) - it.pos
}
