// Package memoize implements the memoization decorator: key computation,
// single-flight coalescing of concurrent misses, hit/miss accounting, and
// sync + future-based async call shapes, all bound to a backing cache.Cache.
package memoize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyMaker computes a cache key from a call's positional arguments. It must
// be a pure function: the same args must always produce the same key. The
// Go translation always produces a string, which is unconditionally
// comparable — the source's "unhashable key_maker result" failure mode
// cannot occur here (see DESIGN.md).
type KeyMaker func(args []any) (string, error)

// DefaultKeyMaker builds a key from each argument's %#v representation,
// joined by a separator that cannot appear inside a Go %#v rendering of a
// builtin type. Mirrors the source's positional-tuple key.
func DefaultKeyMaker(args []any) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%#v", a)
	}

	return strings.Join(parts, "\x1f"), nil
}

// TypedKeyMaker is DefaultKeyMaker with each argument's dynamic type
// prepended, so two arguments that format identically but hold different
// types (e.g. int64(1) and "1") never collide.
func TypedKeyMaker(args []any) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%T:%#v", a, a)
	}

	return strings.Join(parts, "\x1f"), nil
}

// HashedKeyMaker runs DefaultKeyMaker's output through sha256, trading key
// readability for a fixed-length key, the same technique as the pack's
// node-cache HashKeyFunc (sha256 + hex over an fmt-rendered input).
func HashedKeyMaker(args []any) (string, error) {
	raw, err := DefaultKeyMaker(args)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:]), nil
}
