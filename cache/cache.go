// Package cache implements the indexed storage core for cachekit: a
// thread-safe, generic, bounded key-value cache supporting FIFO, RR, LRU,
// LFU, TTL and VTTL eviction/expiration policies (plus a policy-less Plain
// cache) behind one uniform operation set.
package cache

import (
	"sync"
	"time"

	"github.com/GabrielNunesIT/cachekit/cachelog"
)

// KV is an ordered key/value pair, used for constructing a Cache from an
// existing iterable while preserving insertion order.
type KV[K comparable, V any] struct {
	Key   K
	Value V
}

// Cache is a thread-safe, generic, bounded cache enforcing one Policy.
// The zero value is not usable; construct with New, NewTTL, or NewVTTL.
type Cache[K comparable, V any] struct {
	mu sync.Mutex

	policy  Policy
	maxsize int
	ttl     time.Duration // PolicyTTL only: fixed at construction, > 0

	generation uint64
	nextSeq    uint64
	liveCount  int

	logger cachelog.Logger

	index map[K]int32
	slots []slot[K, V]
	free  []int32

	head, tail int32   // FIFO, LRU, TTL: doubly-linked list over c.slots
	heap       []int32 // LFU, VTTL: binary min-heap over c.slots
	live       []int32 // RR: swap-remove list over c.slots
}

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*Cache[K, V])

// WithLogger attaches a structured logger. Eviction, expiration, and
// ShrinkToFit events are logged at Debug; a failed Insert on a full Plain
// cache is logged at Warn. The default is cachelog.Nop().
func WithLogger[K comparable, V any](l cachelog.Logger) Option[K, V] {
	return func(c *Cache[K, V]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCapacityHint pre-reserves arena and index capacity for n entries,
// avoiding growth reallocations for callers who know their working set
// size up front.
func WithCapacityHint[K comparable, V any](n int) Option[K, V] {
	return func(c *Cache[K, V]) {
		if n > 0 {
			c.index = make(map[K]int32, n)
			c.slots = make([]slot[K, V], 0, n)
		}
	}
}

func newBase[K comparable, V any](policy Policy, maxsize int, opts []Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		policy:  policy,
		maxsize: maxsize,
		logger:  cachelog.Nop(),
		index:   make(map[K]int32),
		head:    noIndex,
		tail:    noIndex,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// New constructs a Cache enforcing policy with the given maxsize (0 means
// unbounded) and an optional ordered initial load. PolicyTTL and
// PolicyVTTL are not constructible through New; use NewTTL/NewVTTL.
func New[K comparable, V any](policy Policy, maxsize int, initial []KV[K, V], opts ...Option[K, V]) *Cache[K, V] {
	if policy == PolicyTTL || policy == PolicyVTTL {
		panic("cache: use NewTTL/NewVTTL to construct a TTL/VTTL cache")
	}

	c := newBase(policy, maxsize, opts)
	for _, kv := range initial {
		c.Insert(kv.Key, kv.Value) //nolint:errcheck // initial load mirrors repeated Insert; capacity errors surface on first overflow only
	}

	return c
}

// NewTTL constructs a uniform-TTL cache: every entry expires ttl after its
// insertion (or last replacement). ttl must be strictly positive and
// finite, or ErrInvalidTTL is returned.
func NewTTL[K comparable, V any](
	maxsize int, ttl time.Duration, initial []KV[K, V], opts ...Option[K, V],
) (*Cache[K, V], error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	c := newBase[K, V](PolicyTTL, maxsize, opts)
	c.ttl = ttl

	for _, kv := range initial {
		c.Insert(kv.Key, kv.Value) //nolint:errcheck // see New
	}

	return c, nil
}

// NewVTTL constructs a per-entry-TTL cache. The initial load's ttl field is
// ExpiresAt-relative, identical to InsertVTTL: zero means "no expiry".
func NewVTTL[K comparable, V any](
	maxsize int, initial []VTTLItem[K, V], opts ...Option[K, V],
) (*Cache[K, V], error) {
	c := newBase[K, V](PolicyVTTL, maxsize, opts)

	for _, item := range initial {
		if item.TTL <= 0 {
			c.Insert(item.Key, item.Value) //nolint:errcheck // see New
			continue
		}

		if _, _, err := c.InsertVTTL(item.Key, item.Value, item.TTL); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Cache[K, V]) bumpGeneration() {
	c.generation++
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()

	return c.liveCount
}

// Capacity returns the number of allocated arena slots (live + free),
// i.e. the table's current allocation, not its logical size bound.
func (c *Cache[K, V]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.slots)
}

// IsEmpty reports whether the cache currently holds no live entries.
func (c *Cache[K, V]) IsEmpty() bool {
	return c.Len() == 0
}

// IsFull reports whether the cache is at its maxsize bound. An unbounded
// cache (maxsize == 0) is never full.
func (c *Cache[K, V]) IsFull() bool {
	if c.maxsize == 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()

	return c.liveCount >= c.maxsize
}

// Generation returns the current structural-modification counter, for
// callers building their own iteration logic on top of Cache.
func (c *Cache[K, V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generation
}

// Policy returns the eviction/expiration discipline this cache enforces.
func (c *Cache[K, V]) Policy() Policy {
	return c.policy
}

// MaxSize returns the cache's immutable capacity bound (0 means unbounded).
func (c *Cache[K, V]) MaxSize() int {
	return c.maxsize
}

// TTL returns the uniform expiry duration for a PolicyTTL cache, or 0 for
// any other policy.
func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}
