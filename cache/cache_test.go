package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/cachekit/cache"
)

// policies enumerates every constructible-via-New policy, used by the
// universal-invariant tests below that must hold regardless of eviction
// discipline.
var policies = []cache.Policy{
	cache.PolicyPlain,
	cache.PolicyFIFO,
	cache.PolicyRR,
	cache.PolicyLRU,
	cache.PolicyLFU,
}

func TestUniversalInsertGetRoundTrip(t *testing.T) {
	for _, p := range policies {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			c := cache.New[string, int](p, 0, nil)

			_, _, err := c.Insert("key", 42)
			require.NoError(t, err)

			v, ok := c.Get("key")
			require.True(t, ok)
			assert.Equal(t, 42, v)
		})
	}
}

func TestAtReturnsErrKeyNotFoundOnMiss(t *testing.T) {
	c := cache.New[string, int](cache.PolicyLRU, 0, nil)

	_, err := c.At("missing")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)

	_, _, insErr := c.Insert("key", 42)
	require.NoError(t, insErr)

	v, err := c.At("key")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestUniversalRemoveMissingKeyIsNoop(t *testing.T) {
	for _, p := range policies {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			c := cache.New[string, int](p, 0, nil)

			_, ok := c.Remove("missing")
			assert.False(t, ok)
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestUniversalPopItemOnEmptyReturnsErrEmpty(t *testing.T) {
	for _, p := range policies {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			c := cache.New[string, int](p, 0, nil)

			_, _, err := c.PopItem()
			assert.ErrorIs(t, err, cache.ErrEmpty)
		})
	}
}

func TestUniversalClearEmptiesCache(t *testing.T) {
	for _, p := range policies {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			c := cache.New[string, int](p, 0, nil)
			_, _, _ = c.Insert("a", 1)
			_, _, _ = c.Insert("b", 2)

			c.Clear(true)

			assert.Equal(t, 0, c.Len())
			assert.True(t, c.IsEmpty())

			_, _, err := c.Insert("c", 3)
			require.NoError(t, err)
			assert.Equal(t, 1, c.Len())
		})
	}
}

func TestUniversalDrainRemovesRequestedCount(t *testing.T) {
	for _, p := range policies {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			c := cache.New[string, int](p, 0, nil)

			for i := 0; i < 5; i++ {
				_, _, _ = c.Insert(string(rune('a'+i)), i)
			}

			n := c.Drain(3)
			assert.Equal(t, 3, n)
			assert.Equal(t, 2, c.Len())
		})
	}
}

func TestIsFullRespectsMaxSize(t *testing.T) {
	c := cache.New[string, int](cache.PolicyLRU, 2, nil)
	assert.False(t, c.IsFull())

	_, _, _ = c.Insert("a", 1)
	assert.False(t, c.IsFull())

	_, _, _ = c.Insert("b", 2)
	assert.True(t, c.IsFull())
}

func TestUnboundedCacheIsNeverFull(t *testing.T) {
	c := cache.New[int, int](cache.PolicyLRU, 0, nil)

	for i := 0; i < 1000; i++ {
		_, _, _ = c.Insert(i, i)
	}

	assert.False(t, c.IsFull())
}

func TestShrinkToFitPreservesOrderAndValues(t *testing.T) {
	c := cache.New[string, int](cache.PolicyFIFO, 0, nil)

	for i, k := range []string{"a", "b", "c", "d"} {
		_, _, _ = c.Insert(k, i)
	}

	_, _ = c.Remove("b")
	c.ShrinkToFit()

	assert.Equal(t, 3, c.Len())

	it := c.Iterate()

	var keys []string

	var values []int

	for {
		kv, ok, err := it.Next()
		require.NoError(t, err)

		if !ok {
			break
		}

		keys = append(keys, kv.Key)
		values = append(values, kv.Value)
	}

	assert.Equal(t, []string{"a", "c", "d"}, keys)
	assert.Equal(t, []int{0, 2, 3}, values)
}
