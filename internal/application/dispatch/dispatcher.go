// Package dispatch bounds how many heavy operations (scoring, retraining)
// run concurrently, keeping the request-accepting path responsive.
package dispatch

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Dispatcher is a bounded worker pool for synchronous, CPU-bound calls.
type Dispatcher struct {
	sem *semaphore.Weighted
}

// New creates a Dispatcher with the given number of worker slots.
func New(workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{sem: semaphore.NewWeighted(int64(workers))}
}

// Do runs fn once a worker slot is free and returns its error. If ctx expires
// while waiting for a slot, fn never runs. If ctx expires while fn is already
// running, Do returns ctx.Err() but fn completes in the background — a
// training run that overruns its deadline still publishes its model — and the
// slot is released when it finishes.
func (d *Dispatcher) Do(ctx context.Context, fn func() error) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("dispatch: acquire worker: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		defer d.sem.Release(1)
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
