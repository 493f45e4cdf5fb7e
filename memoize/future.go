package memoize

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/GabrielNunesIT/cachekit/circuitbreaker"
	"github.com/GabrielNunesIT/cachekit/retry"
)

// Future is the result of a CallAsync, resolved by exactly one background
// goroutine. Wait suspends the calling goroutine until the result is ready
// or ctx is done — the async memoizer's only extra suspension point beyond
// the cache/single-flight locks (see spec's concurrency model).
type Future[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Wait blocks until the future resolves or ctx is cancelled, whichever
// comes first.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V

		return zero, ctx.Err()
	}
}

func (f *Future[V]) resolve(v V, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// AsyncCallback is Callback's async-call-shape counterpart. It runs inside
// the same goroutine that resolved the call, after the per-key lock is
// released; any blocking it does (e.g. on another channel) is the
// translation of "awaits if the callback returns an awaitable" — in Go,
// a function that blocks its goroutine IS the await.
type AsyncCallback[V any] func(ctx context.Context, event Event, key string, value V)

// chanMutex is a single-owner, context-cancellable lock: a buffered
// channel of capacity 1 holding a token. Lock/Unlock replace sync.Mutex so
// a waiter blocked on a key can still be unblocked by ctx cancellation,
// which sync.Mutex.Lock cannot do. This is the "cooperative lock" spec §5
// calls for in the async memoizer.
type chanMutex struct {
	ch      chan struct{}
	waiters int32
}

func newChanMutex() *chanMutex {
	cm := &chanMutex{ch: make(chan struct{}, 1)}
	cm.ch <- struct{}{}

	return cm
}

func (cm *chanMutex) Lock(ctx context.Context) error {
	select {
	case <-cm.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cm *chanMutex) Unlock() {
	cm.ch <- struct{}{}
}

// AsyncWrapped is the async call shape sharing Wrapped's single-flight
// algorithm, substituting a chanMutex per key for Wrapped's sync.Mutex so a
// waiter can abandon the wait on context cancellation instead of blocking
// unconditionally.
type AsyncWrapped[V any] struct {
	fn       Func[V]
	cache    Cache[V]
	keyMaker KeyMaker
	callback AsyncCallback[V]
	copyLvl  CopyLevel
	copier   Copier[V]
	isMethod bool
	maxSize  int

	retryOpts []retry.Option
	breaker   *circuitbreaker.CircuitBreaker

	hits   uint64
	misses uint64

	groupsMu sync.Mutex
	groups   map[string]*chanMutex

	excMu      sync.Mutex
	exceptions map[string]error
}

// AsyncOption configures an AsyncWrapped at construction time.
type AsyncOption[V any] func(*AsyncWrapped[V])

// WithAsyncKeyMaker overrides DefaultKeyMaker.
func WithAsyncKeyMaker[V any](km KeyMaker) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) {
		if km != nil {
			w.keyMaker = km
		}
	}
}

// WithAsyncCallback registers a hit/miss callback.
func WithAsyncCallback[V any](cb AsyncCallback[V]) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.callback = cb }
}

// WithAsyncCopyLevel sets the copy-on-cross-boundary level.
func WithAsyncCopyLevel[V any](level CopyLevel) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.copyLvl = level }
}

// WithAsyncCopier supplies a custom shallow-copy function.
func WithAsyncCopier[V any](c Copier[V]) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.copier = c }
}

// WithAsyncIsMethod drops the first positional argument from key
// computation.
func WithAsyncIsMethod[V any](isMethod bool) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.isMethod = isMethod }
}

// WithAsyncMaxSize records the logical bound reported by CacheInfo.
func WithAsyncMaxSize[V any](n int) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.maxSize = n }
}

// WithAsyncRetry retries the wrapped function before a miss is treated as
// a failure.
func WithAsyncRetry[V any](opts ...retry.Option) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.retryOpts = opts }
}

// WithAsyncCircuitBreaker routes invocation through cb.
func WithAsyncCircuitBreaker[V any](cb *circuitbreaker.CircuitBreaker) AsyncOption[V] {
	return func(w *AsyncWrapped[V]) { w.breaker = cb }
}

// WrapAsync binds fn to cache for the future-based call shape.
func WrapAsync[V any](fn Func[V], cache Cache[V], opts ...AsyncOption[V]) *AsyncWrapped[V] {
	w := &AsyncWrapped[V]{
		fn:         fn,
		cache:      cache,
		keyMaker:   DefaultKeyMaker,
		groups:     make(map[string]*chanMutex),
		exceptions: make(map[string]error),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Cache exposes the backing cache.
func (w *AsyncWrapped[V]) Cache() Cache[V] {
	return w.cache
}

// CallAsync starts (or coalesces onto an in-flight) computation for args
// and returns immediately with a Future. The background goroutine honors
// ctx cancellation only while it is waiting on the per-key lock or on the
// wrapped function itself if fn does; once it holds the lock and has
// committed to computing, it runs to completion.
func (w *AsyncWrapped[V]) CallAsync(ctx context.Context, args ...any) *Future[V] {
	future := &Future[V]{done: make(chan struct{})}

	go func() {
		v, err := w.call(ctx, args)
		future.resolve(v, err)
	}()

	return future
}

func (w *AsyncWrapped[V]) call(ctx context.Context, args []any) (V, error) {
	if Bypassed(ctx) {
		return w.invoke(ctx, args)
	}

	key, err := w.computeKey(args)
	if err != nil {
		var zero V

		return zero, err
	}

	if v, ok := w.cache.Get(key); ok {
		return w.onHit(ctx, key, v), nil
	}

	cm := w.enterGroup(key)

	if err := cm.Lock(ctx); err != nil {
		w.leaveGroup(key, cm)

		var zero V

		return zero, err
	}

	// Deferred before the unlock so the hit/miss callback runs only after
	// cm has been unlocked.
	var notify func()
	defer func() {
		if notify != nil {
			notify()
		}
	}()

	// leaveGroup's waiters decrement must be visible to the next lock
	// holder before cm is unlocked, or a waiter racing in right after
	// Unlock can read a stale waiters count and fail to clean up a
	// stashed exception meant only for it. Deferred last so it runs
	// first (defers unwind LIFO).
	defer cm.Unlock()
	defer w.leaveGroup(key, cm)

	if v, ok := w.cache.Get(key); ok {
		atomic.AddUint64(&w.hits, 1)

		out := applyCopy(v, w.copyLvl, w.copier)
		if w.callback != nil {
			notify = func() { w.callback(ctx, Hit, key, out) }
		}

		return out, nil
	}

	waiters := atomic.LoadInt32(&cm.waiters)

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
		notify = func() { w.callback(ctx, Miss, key, out) }
	}

	return out, nil
}

func (w *AsyncWrapped[V]) onHit(ctx context.Context, key string, v V) V {
	atomic.AddUint64(&w.hits, 1)

	out := applyCopy(v, w.copyLvl, w.copier)
	if w.callback != nil {
		w.callback(ctx, Hit, key, out)
	}

	return out
}

func (w *AsyncWrapped[V]) invoke(ctx context.Context, args []any) (V, error) {
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

func (w *AsyncWrapped[V]) computeKey(args []any) (string, error) {
	if w.isMethod && len(args) > 0 {
		return w.keyMaker(args[1:])
	}

	return w.keyMaker(args)
}

func (w *AsyncWrapped[V]) enterGroup(key string) *chanMutex {
	w.groupsMu.Lock()
	defer w.groupsMu.Unlock()

	cm, ok := w.groups[key]
	if !ok {
		cm = newChanMutex()
		w.groups[key] = cm
	}

	atomic.AddInt32(&cm.waiters, 1)

	return cm
}

func (w *AsyncWrapped[V]) leaveGroup(key string, cm *chanMutex) {
	w.groupsMu.Lock()
	defer w.groupsMu.Unlock()

	if atomic.AddInt32(&cm.waiters, -1) <= 0 {
		delete(w.groups, key)
	}
}

// CacheInfo reports accumulated hit/miss counters alongside the backing
// cache's current size.
func (w *AsyncWrapped[V]) CacheInfo() CacheInfo {
	return CacheInfo{
		Hits:     atomic.LoadUint64(&w.hits),
		Misses:   atomic.LoadUint64(&w.misses),
		MaxSize:  w.maxSize,
		Length:   w.cache.Len(),
		Capacity: w.cache.Capacity(),
	}
}

// ClearCache resets counters, clears the backing cache, and discards every
// in-flight lock and stashed exception.
func (w *AsyncWrapped[V]) ClearCache(reuse bool) {
	atomic.StoreUint64(&w.hits, 0)
	atomic.StoreUint64(&w.misses, 0)

	w.cache.Clear(reuse)

	w.groupsMu.Lock()
	w.groups = make(map[string]*chanMutex)
	w.groupsMu.Unlock()

	w.excMu.Lock()
	w.exceptions = make(map[string]error)
	w.excMu.Unlock()
}
