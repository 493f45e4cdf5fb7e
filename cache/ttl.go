package cache

import "time"

// expireTTLLocked drops every entry from the head of the insertion queue
// whose expires_at has passed. Because ttl is uniform, the queue is always
// sorted by expiry, so this is a head-only sweep. Caller must hold c.mu.
func (c *Cache[K, V]) expireTTLLocked(now time.Time) {
	removedAny := false

	for c.head != noIndex {
		s := &c.slots[c.head]
		if s.expiresAt.IsZero() || now.Before(s.expiresAt) {
			break
		}

		idx := c.head
		key := s.key
		c.listUnlink(idx)
		delete(c.index, key)
		c.release(idx)
		c.liveCount--
		removedAny = true
	}

	if removedAny {
		c.bumpGeneration()
		c.logger.Debug("ttl sweep", map[string]any{"live": c.liveCount})
	}
}

// Expire runs the lazy expiration sweep immediately and returns how many
// entries it removed. It is idempotent: calling it again with nothing
// newly expired removes nothing and returns 0. A no-op on policies other
// than TTL/VTTL.
func (c *Cache[K, V]) Expire() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.liveCount
	c.expireLocked()

	return before - c.liveCount
}

// GetWithExpire retrieves key's value along with the seconds remaining
// until it expires, using a monotonic clock. TTL/VTTL only; ok is false
// for a missing or expired key, in which case remaining is 0. A key that
// never expires returns its value with ok true and remaining 0.
func (c *Cache[K, V]) GetWithExpire(key K) (value V, remaining time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, found := c.index[key]
	if !found {
		var zero V

		return zero, 0, false
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

	if s.expiresAt.IsZero() {
		return s.value, 0, true
	}

	remaining = time.Until(s.expiresAt)
	if remaining < 0 {
		remaining = 0
	}

	return s.value, remaining, true
}

// PopItemWithExpire is PopItem plus the remaining TTL the popped entry had
// at the moment it was removed.
func (c *Cache[K, V]) PopItemWithExpire() (key K, value V, remaining time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, ok := c.victimLocked()
	if !ok {
		var zeroK K

		var zeroV V

		return zeroK, zeroV, 0, ErrEmpty
	}

	s := &c.slots[idx]
	key, value = s.key, s.value

	if !s.expiresAt.IsZero() {
		remaining = time.Until(s.expiresAt)
		if remaining < 0 {
			remaining = 0
		}
	}

	c.unlinkLocked(idx)
	delete(c.index, key)
	c.release(idx)
	c.liveCount--
	c.bumpGeneration()

	return key, value, remaining, nil
}

// First returns the key at ordinal i in insertion order (FIFO/TTL) or
// recency order (LRU), where negative i counts from the tail/LRU end.
func (c *Cache[K, V]) First(i int) (key K, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	idx, found := c.listNth(i)
	if !found {
		var zero K

		return zero, false
	}

	return c.slots[idx].key, true
}

// Last returns the key at the tail end: the newest insertion for
// FIFO/TTL, the least-recently-used key for LRU.
func (c *Cache[K, V]) Last() (key K, ok bool) {
	return c.First(-1)
}
