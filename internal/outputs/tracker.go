// Package outputs implements the output-directory refcount of spec.md
// §3/§4.4: the last-successful-result-per-project map and the per-path
// reference count that gates deletion of a superseded classes directory.
package outputs

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/onceaction"
	"golang.org/x/xerrors"
)

// Tracker owns lastSuccessfulResults and currentlyUsingDirectories
// (spec.md §3). Every mutation goes through its single mutex: the spec
// calls for per-key atomicity, not a lock per path, and distri's own maps
// (runningCompilations-equivalent in internal/batch) are guarded the same
// way — one mutex per map, held only across the critical section.
type Tracker struct {
	mu       sync.Mutex
	last     map[model.Project]*model.LastSuccessfulResult
	refcount map[string]int

	// Log receives deletion and promotion diagnostics; defaults to
	// log.Default() if nil.
	Log *log.Logger
}

func New() *Tracker {
	return &Tracker{
		last:     make(map[model.Project]*model.LastSuccessfulResult),
		refcount: make(map[string]int),
	}
}

func (t *Tracker) logger() *log.Logger {
	if t.Log != nil {
		return t.Log
	}
	return log.Default()
}

// AcquireForFingerprintMiss looks up the most recent LastSuccessfulResult
// for project and, if one exists, increments its directory's refcount. It
// must be called exactly once per fingerprint-miss — not once per
// subscriber — because deletion gating relies on "at most one live holder
// per fingerprint" (spec.md §9, "Open question").
func (t *Tracker) AcquireForFingerprintMiss(project model.Project) *model.LastSuccessfulResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	result, ok := t.last[project]
	if !ok {
		return nil
	}
	t.refcount[result.ClassesDir]++
	return result
}

// Release decrements the refcount for a directory that was acquired via
// AcquireForFingerprintMiss but whose compilation ended without producing a
// new successful result (unregister-on-error, spec.md §4.4). The floor is
// zero: a result that was never promoted and already at zero stays there.
func (t *Tracker) Release(result *model.LastSuccessfulResult) {
	if result == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decrementLocked(result.ClassesDir)
}

func (t *Tracker) decrementLocked(dir string) {
	if n, ok := t.refcount[dir]; ok {
		if n <= 1 {
			delete(t.refcount, dir)
		} else {
			t.refcount[dir] = n - 1
		}
	}
}

// RefCount returns the current refcount for a directory, for tests and
// diagnostics. It is always >= 0.
func (t *Tracker) RefCount(dir string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refcount[dir]
}

// Promote registers newSucc as the project's LastSuccessfulResult,
// displacing whatever was registered before. If the displaced result's
// refcount reaches zero and its directory differs from newSucc's, its
// deletion is scheduled on the background I/O scheduler (spec.md §4.4).
func (t *Tracker) Promote(ctx context.Context, project model.Project, newSucc *model.LastSuccessfulResult) {
	t.mu.Lock()
	displaced := t.last[project]
	t.last[project] = newSucc
	var toDelete *model.LastSuccessfulResult
	if displaced != nil {
		t.decrementLocked(displaced.ClassesDir)
		if t.refcount[displaced.ClassesDir] == 0 && displaced.ClassesDir != newSucc.ClassesDir {
			toDelete = displaced
		}
	}
	t.mu.Unlock()

	if toDelete == nil {
		return
	}
	t.scheduleDeletion(ctx, toDelete, newSucc)
}

// scheduleDeletion composes and runs the deletion sequence: populate the
// displaced result, then the new one, then delete the displaced directory.
// newSucc's PopulatingProducts is replaced by this composite so that a
// later reader who awaits it observes the whole chain, not just its own
// step (spec.md §4.4).
func (t *Tracker) scheduleDeletion(ctx context.Context, prev, newSucc *model.LastSuccessfulResult) {
	originalPopulate := newSucc.PopulatingProducts
	composite := onceaction.New(func(ctx context.Context) error {
		if err := prev.PopulatingProducts.Run(ctx); err != nil {
			return xerrors.Errorf("populating displaced result for %s: %w", prev.Project, err)
		}
		if originalPopulate != nil {
			if err := originalPopulate.Run(ctx); err != nil {
				return xerrors.Errorf("populating new result for %s: %w", newSucc.Project, err)
			}
		}
		return nil
	})
	newSucc.PopulatingProducts = composite

	go func() {
		if err := composite.Run(ctx); err != nil {
			t.logger().Printf("not deleting %s: %v", prev.ClassesDir, err)
			return
		}
		if err := os.RemoveAll(prev.ClassesDir); err != nil && !os.IsNotExist(err) {
			t.logger().Printf("deleting %s: %v", prev.ClassesDir, err)
		}
	}()
}

// Snapshot returns the project's current LastSuccessfulResult, or nil.
func (t *Tracker) Snapshot(project model.Project) *model.LastSuccessfulResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last[project]
}
