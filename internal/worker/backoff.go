package worker

import (
	"math"
	"time"
)

// Backoff shapes the failure ramp of a polling loop: the wait grows
// geometrically with each consecutive failure until it settles at Max.
// Zero fields fall back to a 2s start doubling up to a minute.
type Backoff struct {
	// MaxAttempts bounds the ramp; further failures wait Max.
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
}

// Delay returns the wait after the given consecutive failure count
// (1-based), clamped to Max.
func (b Backoff) Delay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	if b.Initial <= 0 {
		b.Initial = 2 * time.Second
	}
	if b.Factor <= 0 {
		b.Factor = 2
	}
	if b.Max <= 0 {
		b.Max = time.Minute
	}

	if b.MaxAttempts > 0 && failures > b.MaxAttempts {
		return b.Max
	}

	d := time.Duration(float64(b.Initial) * math.Pow(b.Factor, float64(failures-1)))
	if d <= 0 || d > b.Max {
		// Сюда же попадает переполнение при больших failures.
		d = b.Max
	}
	return d
}
