package cache

import "time"

// noIndex marks the absence of an arena slot or heap position, playing the
// role of a nil pointer without the reference-cycle hazards a real pointer
// graph would create between the hash index and the policy side structure
// (see the arena + index-handle guidance this module is built on).
const noIndex int32 = -1

// slot is one arena-resident entry. Only the fields relevant to the cache's
// configured Policy are kept meaningful; the others are simply unused.
type slot[K comparable, V any] struct {
	key   K
	value V
	alive bool

	seq  uint64 // insertion_seq: FIFO, TTL
	freq uint64 // frequency: LFU, incremented on every hit

	expiresAt time.Time // TTL, VTTL; zero Time means "no expiry"

	prev, next int32 // doubly-linked list handles: FIFO, LRU, TTL
	heapIdx    int32 // position inside c.heap: LFU, VTTL; noIndex if absent
	liveIdx    int32 // position inside c.live: RR; noIndex if absent
}

// alloc returns a slot index ready to be filled with a new entry, reusing a
// freed slot when one is available.
func (c *Cache[K, V]) alloc() int32 {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]

		return idx
	}

	c.slots = append(c.slots, slot[K, V]{prev: noIndex, next: noIndex, heapIdx: noIndex, liveIdx: noIndex})

	//nolint:gosec // cache sizes never approach MaxInt32 in practice
	return int32(len(c.slots) - 1)
}

// release returns idx to the free list and clears its payload so it no
// longer pins the key/value for GC purposes.
func (c *Cache[K, V]) release(idx int32) {
	var zeroK K
	var zeroV V

	s := &c.slots[idx]
	s.key = zeroK
	s.value = zeroV
	s.alive = false
	s.prev, s.next = noIndex, noIndex
	s.heapIdx = noIndex
	s.liveIdx = noIndex

	c.free = append(c.free, idx)
}
