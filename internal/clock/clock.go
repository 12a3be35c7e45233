// Package clock provides the real time source and sleeper used outside tests.
package clock

import (
	"context"
	"fmt"
	"time"
)

// System implements jobs.Clock using time.Now.
type System struct{}

// NewSystem creates a wall clock.
func NewSystem() System {
	return System{}
}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Sleeper implements jobs.Sleeper with a real timer.
type Sleeper struct{}

// NewSleeper creates a timer-backed sleeper.
func NewSleeper() Sleeper {
	return Sleeper{}
}

// Sleep blocks for d or until ctx finishes, whichever comes first.
func (Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sleep canceled: %w", ctx.Err())
	}
}
