package clients

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/jsamuelsen/motivation-service/internal/platform/config"
)

// jitterRangeMultiplier converts rand [0,1) to [-1,1) for symmetric jitter.
const jitterRangeMultiplier = 2

// Backoff computes exponential delays between attempts:
// Initial * Multiplier^attempt, capped at Max when Max is positive,
// then spread by ±JitterFactor.
type Backoff struct {
	Initial      time.Duration
	Multiplier   float64
	Max          time.Duration
	JitterFactor float64

	// rand returns a value in [0,1). Overridable for testing.
	rand func() float64
}

// NewBackoff creates a Backoff from retry settings.
func NewBackoff(cfg config.RetryConfig) Backoff {
	return Backoff{
		Initial:      cfg.InitialInterval,
		Multiplier:   cfg.Multiplier,
		Max:          cfg.MaxInterval,
		JitterFactor: cfg.JitterFactor,
	}
}

// Delay returns the wait before the retry that follows the given 0-indexed
// failed attempt. With no jitter the defaults yield 1s, 2s, 4s, 8s, 16s.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))

	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.JitterFactor > 0 {
		r := b.rand
		if r == nil {
			r = rand.Float64 //nolint:gosec // No need for crypto-grade randomness
		}

		delay += delay * b.JitterFactor * (r()*jitterRangeMultiplier - 1)
	}

	return time.Duration(delay)
}
