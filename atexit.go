// Package bloopd holds process-lifecycle helpers shared by every cmd/bloopd
// subcommand: an interruptible root context (context.go) and a named
// shutdown-hook registry used to flush anything a subcommand opened for the
// life of the process, such as internal/trace's event file.
package bloopd

import (
	"sync"
	"sync/atomic"

	"golang.org/x/xerrors"
)

type atExitHook struct {
	name string
	fn   func() error
}

var atExit struct {
	sync.Mutex
	hooks  []atExitHook
	closed uint32
}

// RegisterAtExit registers fn to run during RunAtExit, identified by name so
// a failure can be attributed to the hook that caused it (cmd/bloopd's build
// and serve verbs register "trace" whenever -trace is set).
func RegisterAtExit(name string, fn func() error) {
	if atomic.LoadUint32(&atExit.closed) != 0 {
		panic("BUG: RegisterAtExit must not be called from an atExit func")
	}
	atExit.Lock()
	defer atExit.Unlock()
	atExit.hooks = append(atExit.hooks, atExitHook{name: name, fn: fn})
}

// RunAtExit runs every registered hook in registration order, stopping at
// the first failure. It is safe to call more than once (e.g. once from a
// hard SIGINT exit and, if that race is lost, again from normal shutdown):
// hooks already run are expected to be idempotent, as internal/trace.Close
// is.
func RunAtExit() error {
	atomic.StoreUint32(&atExit.closed, 1)
	atExit.Lock()
	hooks := atExit.hooks
	atExit.Unlock()
	for _, h := range hooks {
		if err := h.fn(); err != nil {
			return xerrors.Errorf("shutdown hook %q: %w", h.name, err)
		}
	}
	return nil
}
