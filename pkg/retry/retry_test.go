package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesnap/pkg/retry"
)

var (
	errFlaky = errors.New("connection reset by peer")
	errFatal = errors.New("404 not found")
)

func TestPolicyDelay(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first attempt runs immediately", attempt: 1, want: 0},
		{name: "second attempt waits min times multiplier", attempt: 2, want: 20 * time.Second},
		{name: "third attempt grows exponentially", attempt: 3, want: 40 * time.Second},
		{name: "fourth attempt is capped at max", attempt: 4, want: 60 * time.Second},
		{name: "late attempts stay capped", attempt: 50, want: 60 * time.Second},
	}

	policy := retry.Default()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			got := policy.Delay(tc.attempt)

			// Assert
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPolicyDo(t *testing.T) {
	t.Parallel()

	t.Run("it returns immediately on success", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := newInstantTimer()
		policy := policyWithTimer(timer, 3)
		op := operationFailing(0, errFlaky)

		// Act
		err := policy.Do(t.Context(), op.call)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, op.calls)
		assert.Empty(t, timer.waits())
	})

	t.Run("it retries retryable errors until success", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := newInstantTimer()
		policy := policyWithTimer(timer, 5)
		op := operationFailing(2, errFlaky)

		// Act
		err := policy.Do(t.Context(), op.call)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, op.calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, timer.waits())
	})

	t.Run("it returns the last error unchanged once attempts are exhausted", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := newInstantTimer()
		policy := policyWithTimer(timer, 3)
		op := operationFailing(10, errFlaky)

		// Act
		err := policy.Do(t.Context(), op.call)

		// Assert
		assert.Same(t, errFlaky, err)
		assert.Equal(t, 3, op.calls)
		assert.Len(t, timer.waits(), 2)
	})

	t.Run("it does not retry errors rejected by the predicate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := newInstantTimer()
		policy := policyWithTimer(timer, 5)
		policy.Retryable = func(err error) bool { return errors.Is(err, errFlaky) }
		op := operationFailing(10, errFatal)

		// Act
		err := policy.Do(t.Context(), op.call)

		// Assert
		assert.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, op.calls)
	})

	t.Run("it reports every retry before waiting", func(t *testing.T) {
		t.Parallel()

		// Arrange
		type retryNotice struct {
			attempt int
			delay   time.Duration
			err     error
		}
		var notices []retryNotice

		policy := policyWithTimer(newInstantTimer(), 3)
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			notices = append(notices, retryNotice{attempt: attempt, delay: delay, err: err})
		}
		op := operationFailing(10, errFlaky)

		// Act
		_ = policy.Do(t.Context(), op.call)

		// Assert
		assert.Equal(t, []retryNotice{
			{attempt: 2, delay: 2 * time.Second, err: errFlaky},
			{attempt: 3, delay: 4 * time.Second, err: errFlaky},
		}, notices)
	})

	t.Run("it stops retrying when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx, cancel := context.WithCancel(t.Context())
		policy := policyWithTimer(blockingTimer{}, 5)
		op := &operation{failures: 10, err: errFlaky, onCall: cancel}

		// Act
		err := policy.Do(ctx, op.call)

		// Assert
		assert.Equal(t, 1, op.calls)
		assert.Error(t, err)
	})

	t.Run("it rejects a policy without attempts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		policy := retry.Policy{}
		op := operationFailing(0, nil)

		// Act
		err := policy.Do(t.Context(), op.call)

		// Assert
		assert.ErrorIs(t, err, retry.ErrInvalidPolicy)
		assert.Zero(t, op.calls)
	})
}

func TestCall(t *testing.T) {
	t.Parallel()

	t.Run("it returns the value of the successful attempt", func(t *testing.T) {
		t.Parallel()

		// Arrange
		policy := policyWithTimer(newInstantTimer(), 3)
		calls := 0

		// Act
		got, err := retry.Call(t.Context(), policy, func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errFlaky
			}
			return "page-2", nil
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "page-2", got)
	})
}

// Test helpers

func policyWithTimer(timer interface {
	After(time.Duration) <-chan time.Time
}, attempts int,
) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		MinDelay:    time.Second,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
		Clock:       timer,
	}
}

type operation struct {
	failures int
	err      error
	calls    int
	onCall   func()
}

func operationFailing(failures int, err error) *operation {
	return &operation{failures: failures, err: err}
}

func (o *operation) call(context.Context) error {
	o.calls++
	if o.onCall != nil {
		o.onCall()
	}
	if o.calls <= o.failures {
		return o.err
	}
	return nil
}

// instantTimer fires immediately and records requested waits
type instantTimer struct {
	requested []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{}
}

func (f *instantTimer) After(d time.Duration) <-chan time.Time {
	f.requested = append(f.requested, d)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (f *instantTimer) waits() []time.Duration {
	return f.requested
}

// blockingTimer never fires
type blockingTimer struct{}

func (blockingTimer) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}
