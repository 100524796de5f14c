package bloopd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context that is canceled when bloopd
// receives SIGINT or SIGTERM, recording which signal fired as the
// context's cancellation cause (retrievable with CancelCause) so a
// compile's final error can distinguish an operator-requested shutdown
// from any other reason its context was canceled, e.g. an rpcserver
// client hanging up mid-stream.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		// Subsequent signals will result in immediate termination, which is
		// useful in case cleanup hangs:
		signal.Stop(sig)
		cancel(fmt.Errorf("interrupted by %s", s))
	}()
	return ctx, func() { cancel(nil) }
}

// CancelCause reports why ctx was canceled. It prefers the cause recorded by
// InterruptibleContext's cancel (e.g. "interrupted by terminated") and falls
// back to ctx.Err() for a context canceled some other way.
func CancelCause(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	return ctx.Err()
}
