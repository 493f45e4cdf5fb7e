package memoize_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/cachekit/cache"
	"github.com/GabrielNunesIT/cachekit/memoize"
)

func TestCallCachesResult(t *testing.T) {
	var calls int32

	fn := func(_ context.Context, args []any) (int, error) {
		atomic.AddInt32(&calls, 1)

		return args[0].(int) * 2, nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil))

	v, err := w.Call(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = w.Call(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestConcurrentCallsCoalesceOntoOneInvocation(t *testing.T) {
	var calls int32

	start := make(chan struct{})

	fn := func(_ context.Context, _ []any) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-start

		return 7, nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil))

	const n = 10

	var wg sync.WaitGroup

	results := make([]int, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i], errs[i] = w.Call(context.Background(), "same-key")
		}(i)
	}

	time.Sleep(20 * time.Millisecond) // let every goroutine enter the group
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fn must run exactly once for a coalesced cohort")

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 7, results[i])
	}
}

func TestErrorPropagatesToEveryWaiterWithoutPermanentNegativeCaching(t *testing.T) {
	var calls int32

	boom := errors.New("boom")

	fn := func(_ context.Context, _ []any) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return 0, boom
		}

		return 99, nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil))

	_, err := w.Call(context.Background(), "k")
	require.ErrorIs(t, err, boom)

	// A fresh, non-coalesced call after the failing cohort must re-invoke
	// fn rather than replay a stashed exception forever.
	v, err := w.Call(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestConcurrentErrorCohortLeavesNoStaleStashedException(t *testing.T) {
	var calls int32

	start := make(chan struct{})

	boom := errors.New("boom")

	fn := func(_ context.Context, _ []any) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		<-start

		if n <= 1 {
			return 0, boom
		}

		return 99, nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil))

	const n = 10

	var wg sync.WaitGroup

	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, errs[i] = w.Call(context.Background(), "same-key")
		}(i)
	}

	time.Sleep(20 * time.Millisecond) // let every goroutine enter the group
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fn must run exactly once for a coalesced cohort")

	for i := 0; i < n; i++ {
		require.ErrorIs(t, errs[i], boom, "every coalesced waiter must see the cohort's error")
	}

	// The stashed exception must not survive the cohort that produced it:
	// a fresh cohort racing on the same key must re-invoke fn rather than
	// replay a leaked stale error forever (see DESIGN.md's single-flight
	// lock/unlock ordering note). start is already closed, so this second
	// cohort's fn call never blocks.
	var wg2 sync.WaitGroup

	errs2 := make([]error, n)

	for i := 0; i < n; i++ {
		wg2.Add(1)

		go func(i int) {
			defer wg2.Done()

			_, errs2[i] = w.Call(context.Background(), "same-key")
		}(i)
	}

	wg2.Wait()

	for i := 0; i < n; i++ {
		assert.NoError(t, errs2[i], "a leaked stashed exception would surface here instead of the cohort's successful result")
	}
}

func TestCacheInfoReportsHitsAndMisses(t *testing.T) {
	fn := func(_ context.Context, args []any) (int, error) {
		return args[0].(int), nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil), memoize.WithMaxSize[int](10))

	_, _ = w.Call(context.Background(), 1)
	_, _ = w.Call(context.Background(), 1)
	_, _ = w.Call(context.Background(), 2)

	info := w.CacheInfo()
	assert.Equal(t, uint64(1), info.Hits)
	assert.Equal(t, uint64(2), info.Misses)
	assert.Equal(t, 10, info.MaxSize)
	assert.Equal(t, 2, info.Length)
}

func TestWithBypassSkipsCacheEntirely(t *testing.T) {
	var calls int32

	fn := func(_ context.Context, _ []any) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil))

	ctx := memoize.WithBypass(context.Background())

	v1, err := w.Call(ctx, "k")
	require.NoError(t, err)
	v2, err := w.Call(ctx, "k")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
	assert.Equal(t, 0, w.Cache().Len())
}

func TestCopyNoneAliasesStoredSlice(t *testing.T) {
	fn := func(_ context.Context, _ []any) ([]int, error) {
		return []int{1, 2, 3}, nil
	}

	w := memoize.Wrap(fn, cache.New[string, []int](cache.PolicyLRU, 0, nil))

	v1, err := w.Call(context.Background(), "k")
	require.NoError(t, err)

	v1[0] = 999

	v2, err := w.Call(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 999, v2[0], "CopyNone (default) must alias the cached slice")
}

func TestCopyAlwaysIsolatesStoredSlice(t *testing.T) {
	fn := func(_ context.Context, _ []any) ([]int, error) {
		return []int{1, 2, 3}, nil
	}

	w := memoize.Wrap(
		fn,
		cache.New[string, []int](cache.PolicyLRU, 0, nil),
		memoize.WithCopyLevel[[]int](memoize.CopyAlways),
	)

	v1, err := w.Call(context.Background(), "k")
	require.NoError(t, err)

	v1[0] = 999

	v2, err := w.Call(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 1, v2[0], "CopyAlways must isolate the caller's copy from the cached one")
}

func TestClearCacheResetsCountersAndState(t *testing.T) {
	fn := func(_ context.Context, args []any) (int, error) {
		return args[0].(int), nil
	}

	w := memoize.Wrap(fn, cache.New[string, int](cache.PolicyLRU, 0, nil))

	_, _ = w.Call(context.Background(), 1)
	_, _ = w.Call(context.Background(), 1)

	w.ClearCache(true)

	info := w.CacheInfo()
	assert.Equal(t, uint64(0), info.Hits)
	assert.Equal(t, uint64(0), info.Misses)
	assert.Equal(t, 0, info.Length)
}
