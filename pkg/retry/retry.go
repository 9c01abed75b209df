// Package retry computes the delays used by the commit retry loop and the outbox relay.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy is exponential backoff with additive jitter. The n-th retry waits
// Base * 2^(n-1), capped at Max, plus a uniform jitter in [0, Jitter].
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration
}

// Backoff returns the delay before retry number attempt, without jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 0 || p.Base <= 0 {
		return 0
	}
	d := time.Duration(float64(p.Base) * math.Pow(2, float64(attempt-1)))
	// Overflow shows up as a non-positive duration.
	if d <= 0 || (p.Max > 0 && d > p.Max) {
		return p.Max
	}
	return d
}

// Delay is Backoff plus jitter drawn from r. A nil r adds no jitter.
func (p Policy) Delay(attempt int, r *rand.Rand) time.Duration {
	return p.Backoff(attempt) + Jitter(r, p.Jitter)
}

func Jitter(r *rand.Rand, maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 || r == nil {
		return 0
	}
	return time.Duration(r.Int63n(int64(maxJitter) + 1)) //nolint:gosec
}

// NewRand returns a source seeded from the clock. Jitter does not need a secure source.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
}
