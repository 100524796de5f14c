// Package onceaction provides a memoized, idempotent asynchronous action: a
// func that may legitimately be invoked zero, one, or more times by callers
// but whose side effect only ever runs once.
package onceaction

import (
	"context"
	"sync"
)

// Action wraps fn so that concurrent or repeated calls to Run all observe
// the single execution's outcome. This is the shape of
// LastSuccessfulResult.populatingProducts (§3): it may be composed with
// another Action (outputs.Tracker chains a displaced result's populate step
// ahead of the superseding one) and the composite replaces the original.
type Action struct {
	once sync.Once
	fn   func(ctx context.Context) error
	err  error
}

// New wraps fn in an Action.
func New(fn func(ctx context.Context) error) *Action {
	return &Action{fn: fn}
}

// Run executes the wrapped function exactly once and returns its result to
// every caller, including ones that arrive after the first execution
// finished.
func (a *Action) Run(ctx context.Context) error {
	a.once.Do(func() {
		a.err = a.fn(ctx)
	})
	return a.err
}

// Noop returns an Action whose Run always succeeds without doing anything,
// useful as a base case (e.g. a freshly substituted empty result has
// nothing to populate).
func Noop() *Action {
	return New(func(context.Context) error { return nil })
}
