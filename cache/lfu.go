package cache

import "sort"

// NewLFU constructs a least-frequently-used cache: every Get increments a
// hit counter, while a value-replacing Insert leaves it unchanged; eviction
// takes the lowest counter, breaking ties by oldest insertion.
func NewLFU[K comparable, V any](maxsize int, initial []KV[K, V], opts ...Option[K, V]) *Cache[K, V] {
	return New(PolicyLFU, maxsize, initial, opts...)
}

// LeastFrequentlyUsed returns up to n keys in ascending (frequency,
// insertion order), the same order eviction would take them. It is a
// read-only snapshot of the cache's contents, but a rank query: per spec,
// it still bumps generation and invalidates outstanding iterators, the
// same as LFU's in-place heap re-sort would.
func (c *Cache[K, V]) LeastFrequentlyUsed(n int) []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	c.bumpGeneration()

	if n <= 0 || len(c.heap) == 0 {
		return nil
	}

	idxs := make([]int32, len(c.heap))
	copy(idxs, c.heap)

	sort.Slice(idxs, func(i, j int) bool {
		a, b := &c.slots[idxs[i]], &c.slots[idxs[j]]
		if a.freq != b.freq {
			return a.freq < b.freq
		}

		return a.seq < b.seq
	})

	if n > len(idxs) {
		n = len(idxs)
	}

	out := make([]K, n)
	for i := range n {
		out[i] = c.slots[idxs[i]].key
	}

	return out
}

// FrequencyOf returns key's current hit counter. ok is false if key is
// absent.
func (c *Cache[K, V]) FrequencyOf(key K) (freq uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, found := c.index[key]
	if !found {
		return 0, false
	}

	return c.slots[idx].freq, true
}
