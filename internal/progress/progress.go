// Package progress defines the callback used to surface progress from
// long-running operations to whatever front end is listening.
package progress

import "github.com/rs/zerolog/log"

// Func receives a completion fraction in [0,1] and a short message.
// It may be invoked from any goroutine performing the work.
type Func func(fraction float64, message string)

// Report invokes cb with the fraction clamped to [0,1]. A nil
// callback is a no-op, and a panic inside the callback is caught and
// logged so that UI bugs never propagate into the calling logic.
func Report(cb Func, fraction float64, message string) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("progress callback failed")
		}
	}()
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	cb(fraction, message)
}

// Scaled returns a Func that maps its [0,1] input into the
// [base, base+span] slice of an outer callback, prefixing messages
// with a stage label. Used to fan one progress bar across stages.
func Scaled(cb Func, base, span float64, label string) Func {
	if cb == nil {
		return nil
	}
	return func(fraction float64, message string) {
		if label != "" {
			message = "[" + label + "] " + message
		}
		Report(cb, base+fraction*span, message)
	}
}
