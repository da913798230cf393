package source

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dpaoloni/fundscan/internal/model"
)

// DefaultMinInterval applies to sources with no configured limit.
const DefaultMinInterval = time.Second

// RateLimiter paces outbound requests per source. Each source gets
// its own token-bucket limiter (burst 1), so concurrent workers
// serialize against the same source without serializing against
// different sources. Constructor-injected, never a singleton.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[model.Source]*rate.Limiter
	min      map[model.Source]time.Duration
}

// NewRateLimiter builds a limiter from per-source minimum intervals.
func NewRateLimiter(intervals map[model.Source]time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[model.Source]*rate.Limiter),
		min:      make(map[model.Source]time.Duration),
	}
	for src, interval := range intervals {
		rl.min[src] = interval
	}
	return rl
}

// Wait blocks until a request to the source is allowed, or until the
// context is done.
func (rl *RateLimiter) Wait(ctx context.Context, src model.Source) error {
	return rl.limiterFor(src).Wait(ctx)
}

// SetInterval updates the minimum interval for a source, replacing
// its limiter.
func (rl *RateLimiter) SetInterval(src model.Source, interval time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.min[src] = interval
	delete(rl.limiters, src)
	log.Info().Str("source", string(src)).Dur("interval", interval).Msg("rate limit updated")
}

// Interval returns the minimum interval configured for a source.
func (rl *RateLimiter) Interval(src model.Source) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if interval, ok := rl.min[src]; ok {
		return interval
	}
	return DefaultMinInterval
}

func (rl *RateLimiter) limiterFor(src model.Source) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if lim, ok := rl.limiters[src]; ok {
		return lim
	}

	interval, ok := rl.min[src]
	if !ok {
		interval = DefaultMinInterval
	}
	lim := rate.NewLimiter(rate.Every(interval), 1)
	rl.limiters[src] = lim
	return lim
}
