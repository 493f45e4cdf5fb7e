package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/cachekit/cache"
)

func TestFIFOEvictsOldestInsertion(t *testing.T) {
	c := cache.New[string, int](cache.PolicyFIFO, 3, nil)

	_, _, err := c.Insert("a", 1)
	require.NoError(t, err)
	_, _, err = c.Insert("b", 2)
	require.NoError(t, err)
	_, _, err = c.Insert("c", 3)
	require.NoError(t, err)

	// Touching "a" via Get must not affect FIFO order: it still evicts first.
	_, ok := c.Get("a")
	require.True(t, ok)

	_, _, err = c.Insert("d", 4)
	require.NoError(t, err)

	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
	assert.True(t, c.Contains("d"))
	assert.Equal(t, 3, c.Len())
}

func TestFIFOUpdateExistingKeyDoesNotReorder(t *testing.T) {
	c := cache.New[string, int](cache.PolicyFIFO, 2, nil)

	_, _, _ = c.Insert("a", 1)
	_, _, _ = c.Insert("b", 2)
	_, _, _ = c.Insert("a", 10)

	_, _, err := c.Insert("c", 3)
	require.NoError(t, err)

	assert.False(t, c.Contains("a"), "a was the oldest insertion and must still evict first despite the update")
	assert.True(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
}
