package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/cachekit/cache"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New[string, int](cache.PolicyLRU, 3, nil)

	_, _, _ = c.Insert("a", 1)
	_, _, _ = c.Insert("b", 2)
	_, _, _ = c.Insert("c", 3)

	_, ok := c.Get("a") // a is now most-recently-used; b becomes the LRU victim
	require.True(t, ok)

	_, _, err := c.Insert("d", 4)
	require.NoError(t, err)

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
	assert.True(t, c.Contains("d"))
}

func TestLRUIterationIsMostRecentlyUsedFirst(t *testing.T) {
	c := cache.New[string, int](cache.PolicyLRU, 0, nil)

	_, _, _ = c.Insert("a", 1)
	_, _, _ = c.Insert("b", 2)
	_, _, _ = c.Insert("c", 3)
	_, _ = c.Get("a")

	it := c.Iterate()

	var keys []string

	for {
		kv, ok, err := it.Next()
		require.NoError(t, err)

		if !ok {
			break
		}

		keys = append(keys, kv.Key)
	}

	assert.Equal(t, []string{"a", "c", "b"}, keys)
}

func TestLRUPeekDoesNotPromote(t *testing.T) {
	c := cache.New[string, int](cache.PolicyLRU, 2, nil)

	_, _, _ = c.Insert("a", 1)
	_, _, _ = c.Insert("b", 2)

	_, ok := c.Peek("a")
	require.True(t, ok)

	_, _, err := c.Insert("c", 3)
	require.NoError(t, err)

	assert.False(t, c.Contains("a"), "Peek must not count as use")
	assert.True(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
}
