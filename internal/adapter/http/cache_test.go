package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[int](3)
	c.put("a", 1)
	c.put("b", 2)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache[string](2)
	c.put("a", "first")
	c.put("b", "second")
	c.get("a") // a is now most recent
	c.put("c", "third")

	_, ok := c.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[int](2)
	c.put("a", 1)
	c.put("a", 10)

	v, _ := c.get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_MinimumCapacity(t *testing.T) {
	c := newLRUCache[int](0)
	c.put("a", 1)
	c.put("b", 2)
	assert.Equal(t, 1, c.len())
	_, ok := c.get("b")
	assert.True(t, ok)
}
