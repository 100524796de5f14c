// Package future implements the one-shot and memoized-shared async
// primitives the scheduler needs: a single-producer/multi-consumer promise
// and a memoized task that many callers can await without re-running it.
package future

import "context"

// Future is a one-shot, single-producer/multi-consumer promise. It is used
// for the pipelined scheduler's signature and Java-completion signals: the
// external compiler resolves it exactly once, and any number of goroutines
// may await the value concurrently.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a Future that is already complete with val.
func Resolved[T any](val T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(val)
	return f
}

// Failed returns a Future that is already complete with err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Reject(err)
	return f
}

// Resolve completes the future with val. Calling Resolve or Reject more than
// once panics: the promise is single-producer by contract.
func (f *Future[T]) Resolve(val T) {
	f.val = val
	close(f.done)
}

// Reject completes the future with err.
func (f *Future[T]) Reject(err error) {
	f.err = err
	close(f.done)
}

// Await blocks until the future resolves or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has already been resolved or rejected,
// without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Shared is a memoized task: the producer function runs exactly once, no
// matter how many times Await is called or by how many goroutines. This
// backs the DAG traversal's per-node memo table (§4.1: "if the same sub-DAG
// is encountered twice... the same task is returned") and the schedulers'
// background compile and trigger tasks. The deduplication registry tracks
// its in-flight compilations with its own task type, not Shared.
type Shared[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn in a new goroutine and returns a Shared handle to its result.
func Go[T any](fn func() (T, error)) *Shared[T] {
	s := &Shared[T]{done: make(chan struct{})}
	go func() {
		defer close(s.done)
		s.val, s.err = fn()
	}()
	return s
}

// Await blocks until the task completes or ctx is done. Re-evaluating an
// already-completed Shared performs no further work: it returns the cached
// result instantly.
func (s *Shared[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		return s.val, s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitAll gathers the results of tasks. The tasks themselves are already
// running concurrently (Go starts them immediately); AwaitAll only joins
// them, in order, which is the "every gather over child results" suspension
// point of the concurrency model.
func AwaitAll[T any](ctx context.Context, tasks []*Shared[T]) ([]T, error) {
	results := make([]T, len(tasks))
	for i, t := range tasks {
		v, err := t.Await(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}
