// Package retry wraps a single fallible call with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ssgreg/repeat"

	"github.com/screwyprof/stakesnap/pkg/clock"
)

// Default configuration values
const (
	DefaultMaxAttempts = 5
	DefaultMinDelay    = 10 * time.Second
	DefaultMaxDelay    = 60 * time.Second
	DefaultMultiplier  = 2.0
)

// ErrInvalidPolicy is returned when a policy cannot run a single attempt.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Policy describes how a call is retried.
//
// Attempt k (1-indexed) waits min(MaxDelay, MinDelay*Multiplier^(k-1)) before running, except the first attempt
// which runs immediately. Only errors accepted by Retryable are retried; anything else, and the last error after
// MaxAttempts, is returned unchanged.
type Policy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Multiplier  float64

	// Retryable selects retryable errors. Nil retries every error. Nothing is retried once ctx is done.
	Retryable func(error) bool

	// OnRetry is called before sleeping ahead of attempt number `attempt`.
	OnRetry func(attempt int, delay time.Duration, err error)

	Clock clock.Timer
}

// Default returns the policy used when nothing else is configured.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		MinDelay:    DefaultMinDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// Delay returns how long to wait before the given attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	d := float64(p.MinDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the attempts are exhausted.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidPolicy, p.MaxAttempts)
	}

	var (
		attempt int
		lastErr error
	)

	_ = repeat.Repeat(
		repeat.Fn(func() error {
			attempt++
			if attempt > 1 {
				delay := p.Delay(attempt)
				if p.OnRetry != nil {
					p.OnRetry(attempt, delay, lastErr)
				}
				if err := clock.Sleep(ctx, p.timer(), delay); err != nil {
					lastErr = err
					return err
				}
			}

			lastErr = fn(ctx)
			if lastErr == nil {
				return nil
			}
			if attempt < p.MaxAttempts && p.retryable(ctx, lastErr) {
				return repeat.HintTemporary(lastErr)
			}
			return lastErr
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(p.MaxAttempts),
	)

	return lastErr
}

// Call is Do for functions returning a value.
func Call[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func (p Policy) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) timer() clock.Timer {
	if p.Clock == nil {
		return clock.SystemClock{}
	}
	return p.Clock
}
