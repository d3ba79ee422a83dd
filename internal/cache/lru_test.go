// internal/cache/lru_test.go
//
// Unit-tests for the generic LRU.

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)

	_, _ = c.Get("a") // a becomes MRU
	c.Add("c", 3)     // evicts b

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_GetOrAdd(t *testing.T) {
	c := New[string, *int](4)
	made := 0
	mk := func() *int { made++; n := made; return &n }

	first := c.GetOrAdd("k", mk)
	second := c.GetOrAdd("k", mk)
	assert.Same(t, first, second)
	assert.Equal(t, 1, made)
}

func TestLRU_UpdateKeepsSize(t *testing.T) {
	c := New[int, string](2)
	c.Add(1, "one")
	c.Add(1, "uno")
	v, _ := c.Get(1)
	assert.Equal(t, "uno", v)
	assert.Equal(t, 1, c.Len())
}

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[int, int](0) })
}
