// Package poll waits for a remote resource to reach a state by re-checking it
// at a fixed interval until a deadline.
package poll

import (
	"context"
	"fmt"
	"time"
)

// Clock is the time source used by Until. Tests substitute a fake clock so
// that long waits complete instantly.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock uses the monotonic wall clock and a context-aware sleep.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TimeoutError is returned when the condition was not met before the deadline.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	// Last is the most recent state reported by the check, if any.
	Last string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("condition not met after %s (%d checks)", e.Timeout, e.Attempts)
	if e.Last != "" {
		msg += fmt.Sprintf(", last state %s", e.Last)
	}
	return msg
}

// Check reports whether the wait is over. state is recorded for the timeout
// error; a non-nil error stops the wait immediately.
type Check func(ctx context.Context) (done bool, state string, err error)

// Until runs check, then sleeps interval between further checks, until check
// reports done, returns an error, ctx is cancelled, or timeout elapses. The
// last sleep is shortened so that a final check happens at the deadline.
func Until(ctx context.Context, clock Clock, interval, timeout time.Duration, check Check) error {
	if clock == nil {
		clock = RealClock
	}
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive (got %s)", interval)
	}

	deadline := clock.Now().Add(timeout)
	var last string

	for attempt := 1; ; attempt++ {
		done, state, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if state != "" {
			last = state
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return &TimeoutError{Timeout: timeout, Attempts: attempt, Last: last}
		}

		wait := interval
		if remaining < wait {
			wait = remaining
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return fmt.Errorf("wait cancelled: %w", err)
		}
	}
}
