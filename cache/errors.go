package cache

import "errors"

// Sentinel errors returned by Cache operations. They are never wrapped, so
// callers can compare with errors.Is (or == — they are never re-created).
var (
	// ErrKeyNotFound is returned by subscript-style access to a missing or
	// expired key.
	ErrKeyNotFound = errors.New("cache: key not found")

	// ErrEmpty is returned by PopItem against an empty cache.
	ErrEmpty = errors.New("cache: cache is empty")

	// ErrCapacityExceeded is returned by Insert/SetDefault/Update on a full
	// policy-less (Plain) cache. Policy-bearing caches evict instead.
	ErrCapacityExceeded = errors.New("cache: capacity exceeded")

	// ErrInvalidTTL is returned by NewTTL for a non-positive ttl, by
	// InsertVTTL for a non-positive ttl, and by InsertVTTLAt for an instant
	// that is not in the future. NewVTTL never returns it.
	ErrInvalidTTL = errors.New("cache: ttl must be positive and finite")

	// ErrConcurrentModification is returned by an Iterator whose cache
	// mutated since the iterator was created.
	ErrConcurrentModification = errors.New("cache: concurrent modification")
)
