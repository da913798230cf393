// Package benchmark resolves benchmark instruments across three
// tiers: the loaded universe, a process-wide TTL cache, and external
// sources, in that order.
package benchmark

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/isin"
	"github.com/dpaoloni/fundscan/internal/metrics"
	"github.com/dpaoloni/fundscan/internal/model"
)

// DefaultTTL is how long a cached benchmark stays valid.
const DefaultTTL = 24 * time.Hour

// Cache is a TTL cache of resolved benchmark instruments keyed by
// ISIN. Safe for concurrent use; expired entries are purged lazily
// whenever Status is read. Constructor-injected rather than a
// singleton so tests can run independent instances.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	inst     model.AggregatedInstrument
	storedAt time.Time
}

// Status describes the live portion of the cache.
type Status struct {
	Count            int
	ISINs            []string
	ExpiresInMinutes *int
}

// NewCache returns a Cache with the given TTL; ttl <= 0 selects
// DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached instrument for the ISIN if present and not
// expired. An expired entry is removed on the spot.
func (c *Cache) Get(code string) *model.AggregatedInstrument {
	code = isin.Normalize(code)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[code]
	if !ok {
		metrics.CacheMisses.Inc()
		return nil
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, code)
		metrics.CacheMisses.Inc()
		return nil
	}

	metrics.CacheHits.Inc()
	inst := entry.inst
	return &inst
}

// Put stores an instrument under its normalized ISIN, resetting its
// TTL.
func (c *Cache) Put(code string, inst model.AggregatedInstrument) {
	code = isin.Normalize(code)

	c.mu.Lock()
	c.entries[code] = cacheEntry{inst: inst, storedAt: c.now()}
	c.mu.Unlock()

	log.Debug().Str("isin", code).Msg("benchmark cached")
}

// Status purges expired entries and reports what remains. The expiry
// figure is the time left on the oldest surviving entry.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var oldest time.Time
	var isins []string

	for code, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, code)
			continue
		}
		isins = append(isins, code)
		if oldest.IsZero() || entry.storedAt.Before(oldest) {
			oldest = entry.storedAt
		}
	}

	status := Status{Count: len(isins), ISINs: isins}
	if !oldest.IsZero() {
		remaining := int((c.ttl - now.Sub(oldest)).Minutes())
		if remaining < 0 {
			remaining = 0
		}
		status.ExpiresInMinutes = &remaining
	}
	return status
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
