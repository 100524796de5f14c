// Package sched implements the two compile-ordering strategies of
// spec.md §4.5/§4.6 as internal/graph.Evaluator implementations, on top of
// the two-pool concurrency model of §5.
package sched

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool is the bounded computation pool and the (implicitly unbounded) I/O
// pool of spec.md §5. It generalizes internal/batch/batch.go's
// fixed-size worker loop (a channel of exactly `workers` goroutines reading
// build jobs) into a semaphore so callers can submit arbitrarily shaped
// compute closures instead of only queue items.
type Pool struct {
	compute *semaphore.Weighted
}

// NewPool creates a Pool whose computation side admits at most
// computeWorkers concurrent tasks. A value <= 0 defaults to GOMAXPROCS, the
// same default internal/batch/batch.go's `-jobs` flag falls back to.
func NewPool(computeWorkers int) *Pool {
	if computeWorkers <= 0 {
		computeWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pool{compute: semaphore.NewWeighted(int64(computeWorkers))}
}

// ComputeErr runs fn on the bounded computation pool.
func (p *Pool) ComputeErr(ctx context.Context, fn func() error) error {
	if err := p.compute.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.compute.Release(1)
	return fn()
}

// IO runs fn on the unbounded I/O pool: deduplicated subscribers, event
// replay, and directory copies/deletions all go here so a saturated
// computation pool can never deadlock waiting on them (spec.md §5).
func (p *Pool) IO(fn func()) {
	go fn()
}

// Compute runs fn on the bounded computation pool and returns its value.
// Package-level because Go methods cannot carry their own type parameters.
func Compute[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := p.compute.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.compute.Release(1)
	return fn()
}
