package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"time"
)

// wireHeader is the deterministic, round-trippable on-disk header: policy
// tag, capacity bounds, and the uniform TTL when the policy is PolicyTTL.
type wireHeader struct {
	Policy   string
	MaxSize  int
	Capacity int
	TTL      time.Duration
}

// wireEntry is one serialized entry. Only the fields meaningful to the
// source cache's policy are populated; the rest are zero.
type wireEntry[K comparable, V any] struct {
	Key          K
	Value        V
	InsertionSeq uint64
	RecencyRank  int
	Frequency    uint64
	ExpiresAt    time.Time
}

// Dump writes a deterministic, round-trippable encoding of the cache's
// current state to w, preserving iteration order and expirations.
func (c *Cache[K, V]) Dump(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	order := c.orderedLiveIndices()

	header := wireHeader{
		Policy:   c.policy.String(),
		MaxSize:  c.maxsize,
		Capacity: len(c.slots),
		TTL:      c.ttl,
	}

	entries := make([]wireEntry[K, V], len(order))

	for rank, idx := range order {
		s := &c.slots[idx]
		entries[rank] = wireEntry[K, V]{
			Key:          s.key,
			Value:        s.value,
			InsertionSeq: s.seq,
			RecencyRank:  rank,
			Frequency:    s.freq,
			ExpiresAt:    s.expiresAt,
		}
	}

	enc := gob.NewEncoder(w)
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("cache: encode header: %w", err)
	}

	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("cache: encode entries: %w", err)
	}

	return nil
}

// DumpBytes is a convenience wrapper around Dump for callers who want the
// encoded form in memory rather than streamed.
func (c *Cache[K, V]) DumpBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load replaces the cache's contents with the state read from r, as
// previously written by Dump. Entries whose expires_at has already passed
// are dropped silently, so the loaded Len may be less than the dumped one.
// The policy tag in the stream must match the receiver's configured policy.
func (c *Cache[K, V]) Load(r io.Reader) error {
	dec := gob.NewDecoder(r)

	var header wireHeader
	if err := dec.Decode(&header); err != nil {
		return fmt.Errorf("cache: decode header: %w", err)
	}

	if header.Policy != "" && header.Policy != c.policy.String() {
		return fmt.Errorf("cache: stream policy %q does not match cache policy %q", header.Policy, c.policy.String())
	}

	var entries []wireEntry[K, V]
	if err := dec.Decode(&entries); err != nil {
		return fmt.Errorf("cache: decode entries: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[K]int32, len(entries))
	c.slots = make([]slot[K, V], 0, len(entries))
	c.free = nil
	c.head, c.tail = noIndex, noIndex
	c.heap = nil
	c.live = nil
	c.liveCount = 0

	if header.MaxSize > 0 {
		c.maxsize = header.MaxSize
	}

	if c.policy == PolicyTTL && header.TTL > 0 {
		c.ttl = header.TTL
	}

	now := time.Now()

	for _, e := range entries {
		if (c.policy == PolicyTTL || c.policy == PolicyVTTL) && !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
			continue
		}

		idx := c.alloc()
		s := &c.slots[idx]
		s.key, s.value, s.alive = e.Key, e.Value, true
		s.seq = e.InsertionSeq
		s.freq = e.Frequency
		s.expiresAt = e.ExpiresAt

		if s.seq >= c.nextSeq {
			c.nextSeq = s.seq + 1
		}

		switch c.policy {
		case PolicyFIFO, PolicyLRU, PolicyTTL:
			c.listPushTail(idx)
		case PolicyLFU, PolicyVTTL:
			c.heapPush(idx)
		case PolicyRR:
			c.rrAdd(idx)
		case PolicyPlain:
		}

		c.index[e.Key] = idx
		c.liveCount++
	}

	c.bumpGeneration()

	return nil
}

// LoadBytes is a convenience wrapper around Load for an in-memory buffer.
func (c *Cache[K, V]) LoadBytes(data []byte) error {
	return c.Load(bytes.NewReader(data))
}
