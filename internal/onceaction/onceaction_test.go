package onceaction

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunExecutesFnExactlyOnce(t *testing.T) {
	var calls int32
	a := New(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Run(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fn ran %d times, want exactly 1", got)
	}
}

func TestRunReturnsSameErrorToEveryCaller(t *testing.T) {
	want := errors.New("boom")
	a := New(func(ctx context.Context) error { return want })

	if err := a.Run(context.Background()); err != want {
		t.Fatalf("first call: got %v, want %v", err, want)
	}
	if err := a.Run(context.Background()); err != want {
		t.Fatalf("second call: got %v, want %v (cached)", err, want)
	}
}

func TestNoopAlwaysSucceeds(t *testing.T) {
	if err := Noop().Run(context.Background()); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}
