package rate_limiter

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Backoff is the retry policy for failed calls to the artifact store.
// The delay before retry n (from 0) is MinDelay * 3^n, with +/-20% jitter, capped at MaxDelay
type Backoff struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

func DefaultBackoff() *Backoff {
	return &Backoff{
		MaxAttempts: 3,
		MinDelay:    25 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns how long to wait before retrying after the given (0 based) failed attempt
func (b *Backoff) Delay(attempt int) time.Duration {
	// jitter is in [0.8, 1.2)
	jitter := 0.8 + rand.Float64()*0.4
	delay := float64(b.MinDelay) * math.Pow(3, float64(attempt)) * jitter
	if delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}

func (b *Backoff) Validate() []string {
	var validationErrors []string
	if b.MaxAttempts < 1 {
		validationErrors = append(validationErrors, "max_attempts must be greater than or equal to 1")
	}
	if b.MinDelay <= 0 {
		validationErrors = append(validationErrors, "min_delay must be greater than 0")
	}
	if b.MaxDelay < b.MinDelay {
		validationErrors = append(validationErrors, fmt.Sprintf("max_delay must be at least min_delay (%s)", b.MinDelay))
	}
	return validationErrors
}
