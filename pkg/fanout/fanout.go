// Package fanout runs independent units of work on a bounded pool and collects a per-unit outcome.
//
// A single Pool may be shared by several concurrent Map calls: the bound applies to all of them together,
// which is how nested fan-outs stay within one global limit.
package fanout

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgun/holster/v4/syncutil"
	"golang.org/x/sync/semaphore"
)

// ErrTaskPanicked is reported in an Outcome when a task panics.
var ErrTaskPanicked = errors.New("task panicked")

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the result of one Task: either Value or Err.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Pool bounds how many tasks run at once.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool running at most size tasks concurrently. Sizes below one are raised to one.
func NewPool(size int) *Pool {
	size = max(size, 1)
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Size returns the concurrency bound.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn in a pool slot, waiting for one to become free.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	return guard(ctx, fn)
}

// Map runs every task on the pool and returns their outcomes in task order.
//
// Map never fails as a whole. A slot is acquired before a task's goroutine starts; if ctx ends while waiting,
// that task and all later ones get ctx.Err() as their outcome.
func Map[T any](ctx context.Context, p *Pool, tasks []Task[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))

	var wg syncutil.WaitGroup
	for i := range tasks {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(tasks); j++ {
				outcomes[j].Err = err
			}
			break
		}

		wg.Run(func(val any) error {
			defer p.sem.Release(1)

			idx := val.(int)
			var v T
			outcomes[idx].Err = guard(ctx, func(ctx context.Context) error {
				var err error
				v, err = tasks[idx](ctx)
				return err
			})
			outcomes[idx].Value = v
			return nil
		}, i)
	}
	wg.Wait()

	return outcomes
}

func guard(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return fn(ctx)
}
