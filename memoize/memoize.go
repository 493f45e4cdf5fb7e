package memoize

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/GabrielNunesIT/cachekit/circuitbreaker"
	"github.com/GabrielNunesIT/cachekit/retry"
)

// Event identifies whether a completed call was served from the cache or
// computed fresh.
type Event int

const (
	// Hit means the value was already present in the cache.
	Hit Event = iota
	// Miss means the wrapped function ran (by this goroutine or a
	// concurrent one coalesced onto the same call) to produce the value.
	Miss
)

// String renders the event name used in log fields and tests.
func (e Event) String() string {
	if e == Hit {
		return "hit"
	}

	return "miss"
}

// Callback is invoked once a call completes, after the cache lock (and any
// single-flight lock) has been released.
type Callback[V any] func(event Event, key string, value V)

// Func is the signature a Wrapped binds to: a context plus the call's
// positional arguments, producing a value or an error. Arbitrary-arity
// argument lists are represented as []any since Go generics cannot express
// a variadic heterogeneous parameter list the way the source language does.
type Func[V any] func(ctx context.Context, args []any) (V, error)

// Cache is the capability surface Wrapped depends on — exactly
// cache.Cache[string, V]'s Get/Insert/Remove/Contains/Len/Capacity/Clear,
// restated as an interface so the memoizer never names the concrete
// cache.Cache type (see spec's "dict-like protocol polymorphism" note).
type Cache[V any] interface {
	Get(key string) (V, bool)
	Insert(key string, value V) (V, bool, error)
	Remove(key string) (V, bool)
	Contains(key string) bool
	Len() int
	Capacity() int
	Clear(reuse bool)
}

// CacheInfo reports accumulated call statistics, mirroring the source's
// (hits, misses, maxsize, length, capacity) namedtuple.
type CacheInfo struct {
	Hits     uint64
	Misses   uint64
	MaxSize  int
	Length   int
	Capacity int
}

type callGroup struct {
	mu      sync.Mutex
	waiters int32
}

// Wrapped binds Func to a backing Cache with single-flight coalescing of
// concurrent misses on the same key. The zero value is not usable;
// construct with Wrap.
type Wrapped[V any] struct {
	fn       Func[V]
	cache    Cache[V]
	keyMaker KeyMaker
	callback Callback[V]
	copyLvl  CopyLevel
	copier   Copier[V]
	isMethod bool
	maxSize  int

	retryOpts []retry.Option
	breaker   *circuitbreaker.CircuitBreaker

	hits   uint64
	misses uint64

	groupsMu sync.Mutex
	groups   map[string]*callGroup

	excMu      sync.Mutex
	exceptions map[string]error
}

// Option configures a Wrapped at construction time.
type Option[V any] func(*Wrapped[V])

// WithKeyMaker overrides DefaultKeyMaker.
func WithKeyMaker[V any](km KeyMaker) Option[V] {
	return func(w *Wrapped[V]) {
		if km != nil {
			w.keyMaker = km
		}
	}
}

// WithCallback registers a hit/miss callback, invoked after the cache (and
// any single-flight lock) has been released.
func WithCallback[V any](cb Callback[V]) Option[V] {
	return func(w *Wrapped[V]) { w.callback = cb }
}

// WithCopyLevel sets the copy-on-cross-boundary level. Default CopyNone.
func WithCopyLevel[V any](level CopyLevel) Option[V] {
	return func(w *Wrapped[V]) { w.copyLvl = level }
}

// WithCopier supplies a custom shallow-copy function, used instead of the
// reflect-based fallback whenever CopyLevel requires a copy.
func WithCopier[V any](c Copier[V]) Option[V] {
	return func(w *Wrapped[V]) { w.copier = c }
}

// WithIsMethod drops the first positional argument (the receiver) from key
// computation, while still passing it through to the wrapped function.
func WithIsMethod[V any](isMethod bool) Option[V] {
	return func(w *Wrapped[V]) { w.isMethod = isMethod }
}

// WithMaxSize records the logical bound reported by CacheInfo. It does not
// itself enforce a bound — that is the backing Cache's job.
func WithMaxSize[V any](n int) Option[V] {
	return func(w *Wrapped[V]) { w.maxSize = n }
}

// WithRetry retries the wrapped function (with the given retry.Options)
// before a miss is treated as a failure, so transient errors don't get
// coalesced into a stashed exception for waiters.
func WithRetry[V any](opts ...retry.Option) Option[V] {
	return func(w *Wrapped[V]) { w.retryOpts = opts }
}

// WithCircuitBreaker routes the wrapped function's invocation through cb,
// so a function failing past cb's threshold fails fast for every waiter
// instead of being re-invoked per coalesced cohort.
func WithCircuitBreaker[V any](cb *circuitbreaker.CircuitBreaker) Option[V] {
	return func(w *Wrapped[V]) { w.breaker = cb }
}

// Wrap binds fn to cache, returning a memoizing decorator.
func Wrap[V any](fn Func[V], cache Cache[V], opts ...Option[V]) *Wrapped[V] {
	w := &Wrapped[V]{
		fn:         fn,
		cache:      cache,
		keyMaker:   DefaultKeyMaker,
		groups:     make(map[string]*callGroup),
		exceptions: make(map[string]error),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Cache exposes the backing cache, the Go-idiomatic stand-in for the
// source's is_cached/_wrapped.cache attribute access (see DESIGN.md).
func (w *Wrapped[V]) Cache() Cache[V] {
	return w.cache
}

type bypassKey struct{}

// WithBypass returns a context that causes the next Call/CallAsync through
// it to skip the cache and single-flight machinery entirely, always
// invoking the wrapped function directly. Mirrors the source's
// cachebox__ignore bypass kwarg.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// Bypassed reports whether ctx was produced by WithBypass.
func Bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)

	return v
}

// Call invokes the memoized function with args, computing its key,
// coalescing concurrent misses on that key behind a per-key lock, and
// caching the result. The wrapped function's error propagates unchanged to
// the caller that triggered (or is coalesced behind) its invocation.
func (w *Wrapped[V]) Call(ctx context.Context, args ...any) (V, error) {
	if Bypassed(ctx) {
		return w.invoke(ctx, args)
	}

	key, err := w.computeKey(args)
	if err != nil {
		var zero V

		return zero, err
	}

	if v, ok := w.cache.Get(key); ok {
		return w.onHit(key, v), nil
	}

	cg := w.enterGroup(key)

	// Deferred before the unlock so the hit/miss callback runs only after
	// cg.mu has been released.
	var notify func()
	defer func() {
		if notify != nil {
			notify()
		}
	}()

	cg.mu.Lock()
	// leaveGroup's waiters decrement must be visible to the next lock
	// holder before cg.mu is released, or a waiter racing in right after
	// Unlock can read a stale waiters count and fail to clean up a
	// stashed exception meant only for it. Deferred last so it runs
	// first (defers unwind LIFO).
	defer cg.mu.Unlock()
	defer w.leaveGroup(key, cg)

	if v, ok := w.cache.Get(key); ok {
		atomic.AddUint64(&w.hits, 1)

		out := applyCopy(v, w.copyLvl, w.copier)
		if w.callback != nil {
			notify = func() { w.callback(Hit, key, out) }
		}

		return out, nil
	}

	waiters := atomic.LoadInt32(&cg.waiters)

	w.excMu.Lock()
	cachedErr, hasErr := w.exceptions[key]
	w.excMu.Unlock()

	if hasErr {
		if waiters <= 1 {
			w.excMu.Lock()
			delete(w.exceptions, key)
			w.excMu.Unlock()
		}

		var zero V

		return zero, cachedErr
	}

	value, err := w.invoke(ctx, args)
	if err != nil {
		if waiters > 1 {
			w.excMu.Lock()
			w.exceptions[key] = err
			w.excMu.Unlock()
		}

		var zero V

		return zero, err
	}

	stored := applyCopy(value, w.copyLvl, w.copier)
	if _, _, err := w.cache.Insert(key, stored); err != nil {
		var zero V

		return zero, err
	}

	atomic.AddUint64(&w.misses, 1)

	out := applyCopy(value, w.copyLvl, w.copier)
	if w.callback != nil {
		notify = func() { w.callback(Miss, key, out) }
	}

	return out, nil
}

func (w *Wrapped[V]) onHit(key string, v V) V {
	atomic.AddUint64(&w.hits, 1)

	out := applyCopy(v, w.copyLvl, w.copier)
	if w.callback != nil {
		w.callback(Hit, key, out)
	}

	return out
}

// invoke calls the wrapped function, applying the configured retry policy
// and/or circuit breaker around the raw call.
func (w *Wrapped[V]) invoke(ctx context.Context, args []any) (V, error) {
	if w.breaker == nil && w.retryOpts == nil {
		return w.fn(ctx, args)
	}

	var result V

	run := func(ctx context.Context) error {
		v, err := w.fn(ctx, args)
		if err != nil {
			return err
		}

		result = v

		return nil
	}

	call := func() error { return run(ctx) }
	if w.retryOpts != nil {
		call = func() error { return retry.Do(ctx, run, w.retryOpts...) }
	}

	var err error
	if w.breaker != nil {
		err = w.breaker.Execute(call)
	} else {
		err = call()
	}

	return result, err
}

func (w *Wrapped[V]) computeKey(args []any) (string, error) {
	if w.isMethod && len(args) > 0 {
		return w.keyMaker(args[1:])
	}

	return w.keyMaker(args)
}

func (w *Wrapped[V]) enterGroup(key string) *callGroup {
	w.groupsMu.Lock()
	defer w.groupsMu.Unlock()

	cg, ok := w.groups[key]
	if !ok {
		cg = &callGroup{}
		w.groups[key] = cg
	}

	atomic.AddInt32(&cg.waiters, 1)

	return cg
}

func (w *Wrapped[V]) leaveGroup(key string, cg *callGroup) {
	w.groupsMu.Lock()
	defer w.groupsMu.Unlock()

	if atomic.AddInt32(&cg.waiters, -1) <= 0 {
		delete(w.groups, key)
	}
}

// CacheInfo reports accumulated hit/miss counters alongside the backing
// cache's current size.
func (w *Wrapped[V]) CacheInfo() CacheInfo {
	return CacheInfo{
		Hits:     atomic.LoadUint64(&w.hits),
		Misses:   atomic.LoadUint64(&w.misses),
		MaxSize:  w.maxSize,
		Length:   w.cache.Len(),
		Capacity: w.cache.Capacity(),
	}
}

// ClearCache resets the hit/miss counters, clears the backing cache (reuse
// controls whether its allocated capacity is kept), and discards every
// in-flight single-flight lock and stashed exception.
func (w *Wrapped[V]) ClearCache(reuse bool) {
	atomic.StoreUint64(&w.hits, 0)
	atomic.StoreUint64(&w.misses, 0)

	w.cache.Clear(reuse)

	w.groupsMu.Lock()
	w.groups = make(map[string]*callGroup)
	w.groupsMu.Unlock()

	w.excMu.Lock()
	w.exceptions = make(map[string]error)
	w.excMu.Unlock()
}
