// Package ratelimit throttles outbound identity API calls with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter so that a zero or negative rate means unlimited.
type Limiter struct {
	limiter *rate.Limiter
	rps     float64
}

// New returns a limiter allowing rps requests per second with a burst of one.
// rps <= 0 disables limiting.
func New(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		rps:     rps,
	}
}

// Enabled reports whether requests are throttled.
func (l *Limiter) Enabled() bool {
	return l != nil && l.limiter != nil
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}
	return l.limiter.Wait(ctx)
}

func (l *Limiter) String() string {
	if !l.Enabled() {
		return "rate limiting disabled"
	}
	if l.rps < 1 {
		interval := time.Duration(float64(time.Second) / l.rps)
		return fmt.Sprintf("1 request per %s", interval.Round(time.Millisecond))
	}
	return fmt.Sprintf("%.2f rps", l.rps)
}
