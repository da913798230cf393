package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaoloni/fundscan/internal/model"
)

func testInstrument(code, name string) model.AggregatedInstrument {
	return model.AggregatedInstrument{ISIN: code, Name: name}
}

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	c := NewCache(ttl)
	c.now = clock.now
	return c, clock
}

func TestCachePutGet(t *testing.T) {
	c, _ := newTestCache(DefaultTTL)

	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "world etf"))

	got := c.Get("IE00B4L5Y983")
	require.NotNil(t, got)
	assert.Equal(t, "world etf", got.Name)

	assert.Nil(t, c.Get("LU0690375182"))
}

func TestCacheNormalizesKeys(t *testing.T) {
	c, _ := newTestCache(DefaultTTL)

	c.Put("  ie00b4l5y983 ", testInstrument("IE00B4L5Y983", "world etf"))
	assert.NotNil(t, c.Get("IE00B4L5Y983"))
}

func TestCacheExpiry(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "world etf"))

	clock.advance(59 * time.Minute)
	assert.NotNil(t, c.Get("IE00B4L5Y983"))

	clock.advance(2 * time.Minute)
	assert.Nil(t, c.Get("IE00B4L5Y983"), "entry past its TTL is gone")
	assert.Nil(t, c.Get("IE00B4L5Y983"), "expired entry was purged, not resurrected")
}

func TestCachePutResetsTTL(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "world etf"))
	clock.advance(50 * time.Minute)
	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "world etf v2"))
	clock.advance(50 * time.Minute)

	got := c.Get("IE00B4L5Y983")
	require.NotNil(t, got)
	assert.Equal(t, "world etf v2", got.Name)
}

func TestCacheStatus(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	assert.Equal(t, 0, c.Status().Count)
	assert.Nil(t, c.Status().ExpiresInMinutes)

	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "a"))
	clock.advance(30 * time.Minute)
	c.Put("LU0690375182", testInstrument("LU0690375182", "b"))

	status := c.Status()
	assert.Equal(t, 2, status.Count)
	assert.ElementsMatch(t, []string{"IE00B4L5Y983", "LU0690375182"}, status.ISINs)
	require.NotNil(t, status.ExpiresInMinutes)
	assert.Equal(t, 30, *status.ExpiresInMinutes, "expiry tracks the oldest entry")

	// Expired entries are purged on Status.
	clock.advance(31 * time.Minute)
	status = c.Status()
	assert.Equal(t, 1, status.Count)
	assert.Equal(t, []string{"LU0690375182"}, status.ISINs)
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "a"))
	c.Clear()

	assert.Nil(t, c.Get("IE00B4L5Y983"))
	assert.Equal(t, 0, c.Status().Count)
}

func TestCacheReturnsCopy(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Put("IE00B4L5Y983", testInstrument("IE00B4L5Y983", "original"))

	got := c.Get("IE00B4L5Y983")
	require.NotNil(t, got)
	got.Name = "mutated"

	again := c.Get("IE00B4L5Y983")
	require.NotNil(t, again)
	assert.Equal(t, "original", again.Name, "callers cannot mutate the cached value")
}
