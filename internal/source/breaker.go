package source

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// BreakerSettings tunes the per-source circuit breaker.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
	OpenTimeout         time.Duration
}

// DefaultBreakerSettings mirrors the thresholds used for the market
// data sources: trip on 3 consecutive failures, or on a 5% failure
// ratio once 20 requests have been seen.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 3,
		FailureRatio:        0.05,
		MinRequests:         20,
		OpenTimeout:         60 * time.Second,
	}
}

// Breaker wraps a gobreaker circuit breaker around one source's
// outbound calls.
type Breaker struct {
	cb *cb.CircuitBreaker
}

// NewBreaker builds a Breaker named after its source.
func NewBreaker(name string, settings BreakerSettings) *Breaker {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = settings.OpenTimeout
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= settings.ConsecutiveFailures {
			return true
		}
		if counts.Requests < settings.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > settings.FailureRatio
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn under the breaker.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// State returns the breaker state string for health reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
