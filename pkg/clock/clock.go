// Package clock provides time abstractions for production and testing
package clock

import (
	"context"
	"time"
)

// Timer is the part of a clock needed to wait
type Timer interface {
	After(d time.Duration) <-chan time.Time
}

// SystemClock provides production time implementation using the standard library
type SystemClock struct{}

// After returns a channel that sends the current time after the specified duration
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d on the given timer or until ctx is done.
// A non-positive duration returns immediately unless ctx is already done.
func Sleep(ctx context.Context, t Timer, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.After(d):
		return nil
	}
}
