package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetDelete(t *testing.T) {
	t.Parallel()
	c := New()

	c.Set("k", "v")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	t.Parallel()
	c := New()
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.SetTTL("session", int64(1), time.Hour)

	_, ok := c.Get("session")
	assert.True(t, ok)

	now = now.Add(time.Hour + time.Second)
	_, ok = c.Get("session")
	assert.False(t, ok)

	// Expired entries are dropped, not resurrected.
	_, ok = c.Get("session")
	assert.False(t, ok)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()
	c := New()
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.SetTTL("pin", "x", 0)
	now = now.Add(1000 * time.Hour)
	_, ok := c.Get("pin")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	t.Parallel()
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}
