package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsFreshEntry(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", 42)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestGetMissesExpiredEntry(t *testing.T) {
	base := time.Now()
	c := New(time.Minute)
	c.now = func() time.Time { return base }
	c.Set("k", "v")

	// Exactly at the TTL boundary the entry is already a miss.
	c.now = func() time.Time { return base.Add(time.Minute) }
	_, ok := c.Get("k")
	assert.False(t, ok)

	// The stale entry stays in place but is never returned.
	c.mu.RLock()
	_, present := c.data["k"]
	c.mu.RUnlock()
	assert.True(t, present)
}

func TestSetOverwrites(t *testing.T) {
	base := time.Now()
	c := New(time.Minute)
	c.now = func() time.Time { return base }
	c.Set("k", 1)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	c.Set("k", 2)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}
