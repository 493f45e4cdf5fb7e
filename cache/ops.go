package cache

import "time"

// expireLocked performs the implicit lazy expiration sweep required before
// every read-path operation (Get, Peek, Contains, iterator snapshot) and
// before writers act, for the two time-bounded policies. It is a no-op for
// every other policy. Caller must hold c.mu.
func (c *Cache[K, V]) expireLocked() {
	switch c.policy {
	case PolicyTTL:
		c.expireTTLLocked(time.Now())
	case PolicyVTTL:
		c.expireVTTLLocked(time.Now())
	case PolicyPlain, PolicyFIFO, PolicyRR, PolicyLRU, PolicyLFU:
	}
}

// Insert stores value under key, returning the previous value (if any).
// On a full, policy-bearing cache it evicts a victim first; on a full
// Plain cache with key absent, it fails with ErrCapacityExceeded instead.
func (c *Cache[K, V]) Insert(key K, value V) (previous V, hadPrevious bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.insertLocked(key, value)
}

// insertLocked implements Insert. VTTL has its own InsertVTTL entry point
// (see vttl.go) for the ttl-accepting variant; insertLocked still serves
// VTTL's plain Insert(key, value) call, which updates a value in place
// without touching its existing expiry, or inserts a new never-expiring
// entry.
func (c *Cache[K, V]) insertLocked(key K, value V) (previous V, hadPrevious bool, err error) {
	c.expireLocked()

	if idx, ok := c.index[key]; ok {
		s := &c.slots[idx]
		previous, hadPrevious = s.value, true
		s.value = value

		switch c.policy {
		case PolicyLRU:
			c.listMoveToHead(idx)
		case PolicyLFU:
			// Value replacement does not reset frequency or insertion order.
		case PolicyTTL:
			// The refreshed entry now expires last, so it moves to the tail
			// to keep the queue sorted by expiry.
			s.expiresAt = time.Now().Add(c.ttl)
			c.listUnlink(idx)
			c.listPushTail(idx)
		case PolicyPlain, PolicyFIFO, PolicyRR, PolicyVTTL:
		}

		c.bumpGeneration()

		return previous, hadPrevious, nil
	}

	if c.maxsize > 0 && c.liveCount >= c.maxsize {
		if c.policy == PolicyPlain {
			var zero V

			c.logger.Warn("insert rejected: capacity exceeded", map[string]any{"policy": c.policy.String()})

			return zero, false, ErrCapacityExceeded
		}

		c.evictOneLocked()
	}

	idx := c.alloc()
	s := &c.slots[idx]
	s.key = key
	s.value = value
	s.alive = true
	s.seq = c.nextSeq
	s.freq = 1
	c.nextSeq++

	switch c.policy {
	case PolicyFIFO, PolicyTTL:
		c.listPushTail(idx)
		if c.policy == PolicyTTL {
			s.expiresAt = time.Now().Add(c.ttl)
		}
	case PolicyLRU:
		c.listPushHead(idx)
	case PolicyLFU:
		c.heapPush(idx)
	case PolicyRR:
		c.rrAdd(idx)
	case PolicyVTTL:
		c.heapPush(idx)
	case PolicyPlain:
	}

	c.index[key] = idx
	c.liveCount++
	c.bumpGeneration()

	var zero V

	return zero, false, nil
}

// Get retrieves key's value, updating recency/frequency per policy. A
// missing or (for TTL/VTTL) expired key returns ok == false.
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, found := c.index[key]
	if !found {
		var zero V

		return zero, false
	}

	s := &c.slots[idx]

	switch c.policy {
	case PolicyLRU:
		c.listMoveToHead(idx)
	case PolicyLFU:
		s.freq++
		c.heapFix(idx)
	case PolicyPlain, PolicyFIFO, PolicyRR, PolicyTTL, PolicyVTTL:
	}

	return s.value, true
}

// At retrieves key's value, updating recency/frequency per policy exactly
// like Get, but as a subscript-style accessor: a missing or expired key
// fails with ErrKeyNotFound instead of reporting ok == false. Callers that
// want the non-raising form should use Get.
func (c *Cache[K, V]) At(key K) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	var zero V

	return zero, ErrKeyNotFound
}

// Peek retrieves key's value without updating recency/frequency.
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, found := c.index[key]
	if !found {
		var zero V

		return zero, false
	}

	return c.slots[idx].value, true
}

// Remove deletes key, returning its value if present.
func (c *Cache[K, V]) Remove(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, found := c.index[key]
	if !found {
		var zero V

		return zero, false
	}

	value = c.slots[idx].value
	c.unlinkLocked(idx)
	delete(c.index, key)
	c.release(idx)
	c.liveCount--
	c.bumpGeneration()

	return value, true
}

// Contains reports whether key is present. For TTL/VTTL, an expired entry
// reports false and is removed lazily as a side effect.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	_, found := c.index[key]

	return found
}

// SetDefault returns key's existing value on hit, or inserts def and
// returns it on miss. Errors identically to Insert on a full Plain cache.
func (c *Cache[K, V]) SetDefault(key K, def V) (value V, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	if idx, ok := c.index[key]; ok {
		s := &c.slots[idx]

		switch c.policy {
		case PolicyLRU:
			c.listMoveToHead(idx)
		case PolicyLFU:
			s.freq++
			c.heapFix(idx)
		case PolicyPlain, PolicyFIFO, PolicyRR, PolicyTTL, PolicyVTTL:
		}

		return s.value, nil
	}

	_, _, err = c.insertLocked(key, def)
	if err != nil {
		var zero V

		return zero, err
	}

	return def, nil
}

// PopItem removes and returns the next-to-evict entry under the cache's
// policy. Fails with ErrEmpty when the cache holds no entries.
func (c *Cache[K, V]) PopItem() (key K, value V, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, ok := c.victimLocked()
	if !ok {
		var zeroK K

		var zeroV V

		return zeroK, zeroV, ErrEmpty
	}

	key, value = c.slots[idx].key, c.slots[idx].value
	c.unlinkLocked(idx)
	delete(c.index, key)
	c.release(idx)
	c.liveCount--
	c.bumpGeneration()

	return key, value, nil
}

// Drain removes up to n entries in eviction order, returning the count
// actually removed (fewer than n if the cache emptied first).
func (c *Cache[K, V]) Drain(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	removed := 0

	for removed < n {
		idx, ok := c.victimLocked()
		if !ok {
			break
		}

		delete(c.index, c.slots[idx].key)
		c.unlinkLocked(idx)
		c.release(idx)
		c.liveCount--
		removed++
	}

	if removed > 0 {
		c.bumpGeneration()
	}

	return removed
}

// Clear removes all entries. When reuse is true, allocated arena/table
// capacity is kept for subsequent inserts; when false, it is released.
func (c *Cache[K, V]) Clear(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reuse {
		c.index = make(map[K]int32, len(c.index))

		var zeroK K

		var zeroV V
		for i := range c.slots {
			c.slots[i] = slot[K, V]{key: zeroK, value: zeroV, prev: noIndex, next: noIndex, heapIdx: noIndex, liveIdx: noIndex}
		}

		c.free = c.free[:0]
		for i := range c.slots {
			c.free = append(c.free, int32(i))
		}
	} else {
		c.index = make(map[K]int32)
		c.slots = nil
		c.free = nil
	}

	c.head, c.tail = noIndex, noIndex
	c.heap = c.heap[:0]
	c.live = c.live[:0]
	c.liveCount = 0
	c.bumpGeneration()
}

// ShrinkToFit compacts the arena to exactly the live entry count, dropping
// freed slots. Bumps generation, invalidating outstanding iterators.
func (c *Cache[K, V]) ShrinkToFit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.free) == 0 {
		c.bumpGeneration()

		return
	}

	// Walk the live entries in their CURRENT policy order before any
	// remapping, so the rebuilt structure preserves FIFO/TTL insertion
	// order and LRU recency order exactly (see listNth-style head/tail
	// walks). LFU/VTTL/RR/Plain don't need an order-preserving walk: their
	// comparator/selection fields travel with the slot itself.
	orderedOld := c.orderedLiveIndices()

	oldSlots := c.slots
	newSlots := make([]slot[K, V], 0, c.liveCount)
	remap := make(map[int32]int32, c.liveCount)

	for _, oldIdx := range orderedOld {
		s := oldSlots[oldIdx]
		s.prev, s.next, s.heapIdx, s.liveIdx = noIndex, noIndex, noIndex, noIndex
		newSlots = append(newSlots, s)
		remap[oldIdx] = int32(len(newSlots) - 1)
	}

	for key, oldIdx := range c.index {
		c.index[key] = remap[oldIdx]
	}

	c.slots = newSlots
	c.free = nil
	c.head, c.tail = noIndex, noIndex
	c.heap = c.heap[:0]
	c.live = c.live[:0]

	switch c.policy {
	case PolicyFIFO, PolicyTTL, PolicyLRU:
		// orderedOld was walked head-to-tail; listPushTail re-appends in
		// the same relative order, so the first pushed becomes the new
		// head again (oldest for FIFO/TTL, MRU for LRU).
		for i := range newSlots {
			c.listPushTail(int32(i))
		}
	case PolicyLFU, PolicyVTTL:
		for i := range newSlots {
			c.heapPush(int32(i))
		}
	case PolicyRR:
		for i := range newSlots {
			c.rrAdd(int32(i))
		}
	case PolicyPlain:
	}

	c.bumpGeneration()
	c.logger.Debug("shrink_to_fit", map[string]any{"capacity": len(c.slots)})
}

// orderedLiveIndices returns every live arena index in the cache's current
// iteration order (see IteratorView semantics): head-to-tail for
// FIFO/TTL/LRU, arbitrary (map order) otherwise.
func (c *Cache[K, V]) orderedLiveIndices() []int32 {
	out := make([]int32, 0, c.liveCount)

	switch c.policy {
	case PolicyFIFO, PolicyTTL, PolicyLRU:
		for idx := c.head; idx != noIndex; idx = c.slots[idx].next {
			out = append(out, idx)
		}
	case PolicyLFU, PolicyVTTL, PolicyRR, PolicyPlain:
		for _, idx := range c.index {
			out = append(out, idx)
		}
	}

	return out
}

// Update inserts every pair from iter, in order, as if by repeated Insert.
// On a full Plain cache it stops and returns ErrCapacityExceeded as soon
// as an absent key cannot be inserted.
func (c *Cache[K, V]) Update(iter []KV[K, V]) error {
	for _, kv := range iter {
		if _, _, err := c.Insert(kv.Key, kv.Value); err != nil {
			return err
		}
	}

	return nil
}

// unlinkLocked removes idx from whichever policy side structure is active.
// Caller must hold c.mu and must still delete(c.index, key) and release
// the slot itself.
func (c *Cache[K, V]) unlinkLocked(idx int32) {
	switch c.policy {
	case PolicyFIFO, PolicyLRU, PolicyTTL:
		c.listUnlink(idx)
	case PolicyLFU, PolicyVTTL:
		c.heapRemove(idx)
	case PolicyRR:
		c.rrRemove(idx)
	case PolicyPlain:
	}
}

// victimLocked returns the arena index PopItem/eviction would remove next,
// without removing it.
func (c *Cache[K, V]) victimLocked() (int32, bool) {
	switch c.policy {
	case PolicyFIFO, PolicyTTL:
		if c.head == noIndex {
			return noIndex, false
		}

		return c.head, true
	case PolicyLRU:
		if c.tail == noIndex {
			return noIndex, false
		}

		return c.tail, true
	case PolicyLFU, PolicyVTTL:
		return c.heapMin()
	case PolicyRR:
		return c.rrRandomIndex()
	case PolicyPlain:
		// Plain has no policy structure; arbitrary map iteration order.
		for _, idx := range c.index {
			return idx, true
		}

		return noIndex, false
	default:
		return noIndex, false
	}
}

// evictOneLocked removes exactly one victim to make room for an insert.
func (c *Cache[K, V]) evictOneLocked() {
	idx, ok := c.victimLocked()
	if !ok {
		return
	}

	key := c.slots[idx].key
	c.logger.Debug("evict", map[string]any{"policy": c.policy.String()})
	c.unlinkLocked(idx)
	delete(c.index, key)
	c.release(idx)
	c.liveCount--
}
