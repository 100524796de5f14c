package oninterrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	bloopd "github.com/bloopbuild/bloopd"
)

// onInterrupt allows subcommands to register cleanup handlers which run on
// receiving SIGINT, e.g. cancelling in-flight compilations cleanly, before
// the process exits.
var (
	onInterruptMu sync.Mutex
	onInterrupt   []func()
)

func init() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		sig := <-c
		onInterruptMu.Lock()
		for _, f := range onInterrupt {
			f()
		}
		onInterruptMu.Unlock()
		// A hard Ctrl-C exits here directly rather than unwinding back to
		// funcmain's own bloopd.RunAtExit call, so run the shutdown hooks
		// (e.g. internal/trace.Close) ourselves before exiting.
		if err := bloopd.RunAtExit(); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
		}
		if s, ok := sig.(syscall.Signal); ok {
			os.Exit(128 + int(s))
		}
		os.Exit(1) // generic EXIT_FAILURE
	}()
}

func Register(cb func()) {
	onInterruptMu.Lock()
	defer onInterruptMu.Unlock()
	onInterrupt = append(onInterrupt, cb)
}
