package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_PutGet(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](4, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_ExpiryAndStaleRead(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](4, time.Minute)
	now := time.Unix(1000, 0)
	c.nowFn = func() time.Time { return now }

	c.Put("a", 1)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok, "expired entry misses on Get")

	v, ok := c.GetStale("a")
	require.True(t, ok, "expired entry still served by GetStale")
	assert.Equal(t, 1, v)
}

func TestLRU_CapacityEviction(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](2, time.Minute)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Put(3, 3) // evicts 1

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.GetStale(1)
	assert.False(t, ok, "evicted entries are gone for stale reads too")
	assert.Equal(t, 2, c.Len())
}

func TestLRU_UpdateRefreshesExpiry(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](2, time.Minute)
	now := time.Unix(1000, 0)
	c.nowFn = func() time.Time { return now }

	c.Put("a", 1)
	now = now.Add(50 * time.Second)
	c.Put("a", 2)
	now = now.Add(30 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRU_Stats(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](2, time.Minute)
	c.Put("a", 1)
	c.Get("a")
	c.Get("b")
	c.GetStale("a")

	hits, misses, stales := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(1), stales)
}
