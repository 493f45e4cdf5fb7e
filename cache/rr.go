package cache

import "math/rand/v2"

// NewRR constructs a random-replacement cache: eviction picks a uniformly
// random live entry, independent of access pattern or insertion order.
func NewRR[K comparable, V any](maxsize int, initial []KV[K, V], opts ...Option[K, V]) *Cache[K, V] {
	return New(PolicyRR, maxsize, initial, opts...)
}

// RandomKey returns a uniformly random live key without removing it. ok is
// false when the cache is empty.
func (c *Cache[K, V]) RandomKey() (key K, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, found := c.rrRandomIndex()
	if !found {
		var zero K

		return zero, false
	}

	return c.slots[idx].key, true
}

// PolicyRR needs no ordering, only O(1) insert/remove and an unbiased
// uniform pick over whatever is currently live. c.live holds the arena
// indices of every live entry; each slot records its own position in that
// slice (liveIdx) so removal is a swap-with-last, same technique as the
// heap's index handles.

func (c *Cache[K, V]) rrAdd(idx int32) {
	c.slots[idx].liveIdx = int32(len(c.live))
	c.live = append(c.live, idx)
}

func (c *Cache[K, V]) rrRemove(idx int32) {
	pos := c.slots[idx].liveIdx
	last := int32(len(c.live) - 1)

	if pos != last {
		moved := c.live[last]
		c.live[pos] = moved
		c.slots[moved].liveIdx = pos
	}

	c.live = c.live[:last]
	c.slots[idx].liveIdx = noIndex
}

// rrRandomIndex returns a uniformly random live arena index, or noIndex
// when the cache is empty.
func (c *Cache[K, V]) rrRandomIndex() (int32, bool) {
	if len(c.live) == 0 {
		return noIndex, false
	}

	return c.live[rand.IntN(len(c.live))], true //nolint:gosec // RR does not need crypto-grade randomness
}
