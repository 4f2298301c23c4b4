package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", "1")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	c.Set("a", "2")
	v, _ = c.Get("a")
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	_, _ = c.Get("a")
	c.Set("c", "3")

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("c", "3")

	clock.t = clock.t.Add(31 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok, "a should have expired")

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	c.Set(UserKey("u1", "dashboard", "6"), "x")
	c.Set(UserKey("u1", "balance"), "y")
	c.Set(UserKey("u10", "balance"), "z")

	assert.Equal(t, 2, c.DeletePrefix(UserPrefix("u1")))
	_, ok := c.Get(UserKey("u10", "balance"))
	assert.True(t, ok, "prefix must not match other users")
}

func TestManager_CleanupLifecycle(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.t = clock.t.Add(2 * time.Second)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(10 * time.Millisecond)
	m.StartCleanup(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
}
