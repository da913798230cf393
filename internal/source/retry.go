package source

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig tunes Retry's exponential backoff.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the standard scraper retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// Retry runs fn up to MaxAttempts times with exponential backoff and
// 10-20% jitter between attempts. It stops early when the context is
// done and returns the last error when every attempt fails.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := time.Duration(math.Min(
			float64(cfg.BaseDelay)*math.Pow(2, float64(attempt)),
			float64(cfg.MaxDelay),
		))
		jitter := time.Duration(float64(delay) * (0.1 + 0.1*rand.Float64()))
		delay += jitter

		log.Warn().Err(lastErr).Str("op", name).
			Int("attempt", attempt+1).Int("max", cfg.MaxAttempts).
			Dur("backoff", delay).Msg("retrying after failure")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Error().Err(lastErr).Str("op", name).Int("attempts", cfg.MaxAttempts).
		Msg("giving up after retries")
	return lastErr
}
