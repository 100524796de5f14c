// Package dedup implements the process-wide deduplication registry
// (spec.md §4.3/§4.4): at most one in-flight compilation per fingerprint,
// with late subscribers replayed the producer's event stream instead of
// triggering a second compile.
package dedup

import (
	"context"
	"os"
	"sync"

	"github.com/bloopbuild/bloopd/internal/mirror"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/onceaction"
	"github.com/bloopbuild/bloopd/internal/outputs"
	"github.com/bloopbuild/bloopd/internal/trace"
	"golang.org/x/xerrors"
)

// entry is a RunningCompilation: the memoized task plus the mirror its
// subscribers replay from. previousResult is only safe to read once ready
// is closed — it is published into Registry.running before it is known
// (to serialize concurrent callers onto a single compile), so a late
// joiner must wait for ready rather than racing the field directly.
type entry struct {
	mirror         *mirror.Mirror
	task           *compileTask
	ready          chan struct{}
	previousResult *model.LastSuccessfulResult
}

type compileTask struct {
	done   chan struct{}
	bundle *model.CompileBundle
	result *model.ResultBundle
	err    error
}

func (t *compileTask) await(ctx context.Context) (*model.ResultBundle, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Registry is the process-wide compute-if-absent map from fingerprint to
// in-flight compilation, plus the last-successful-result tracker that
// compute function consults and updates (spec.md §3's three process-wide
// maps, minus currentlyUsingDirectories which outputs.Tracker owns
// privately).
type Registry struct {
	mu      sync.Mutex
	running map[model.OracleInputs]*entry

	Outputs *outputs.Tracker
}

func New(tracker *outputs.Tracker) *Registry {
	return &Registry{
		running: make(map[model.OracleInputs]*entry),
		Outputs: tracker,
	}
}

// SetupAndDeduplicate is setupAndDeduplicate (spec.md §4.3). It runs setup
// to obtain a fingerprinted bundle, then either starts the sole compile for
// that fingerprint or replays an existing one's events to client.
func (r *Registry) SetupAndDeduplicate(
	ctx context.Context,
	client model.ClientInfo,
	in model.BundleInputs,
	setup model.SetupFunc,
	compile model.CompileFunc,
	buildInputs func(bundle *model.CompileBundle) *model.Inputs,
) (*model.ResultBundle, error) {
	bundle, err := setup(ctx, in)
	if err != nil {
		return nil, xerrors.Errorf("setup(%s): %w", in.Project, err)
	}
	fp := bundle.Fingerprint

	r.mu.Lock()
	if e, ok := r.running[fp]; ok {
		r.mu.Unlock()
		return r.joinExisting(ctx, client, bundle, e)
	}

	e := &entry{mirror: mirror.New(), task: &compileTask{done: make(chan struct{})}, ready: make(chan struct{})}
	r.running[fp] = e
	r.mu.Unlock()

	bundle.Mirror = e.mirror
	bundle.Reporter = model.RecordingReporter{Real: bundle.Reporter, M: e.mirror}
	bundle.Logger = model.RecordingLogger{Real: bundle.Logger, M: e.mirror}
	prev := r.Outputs.AcquireForFingerprintMiss(bundle.Project)
	chosen := r.chooseResult(bundle.Project, prev)
	e.previousResult = chosen
	close(e.ready)
	bundle.PreviousResult = chosen

	inputs := buildInputs(bundle)
	result, cerr := compile(ctx, inputs)
	e.mirror.Close()

	r.processResultAtomically(ctx, fp, bundle.Project, prev, result, cerr)

	e.task.result, e.task.err = result, cerr
	close(e.task.done)

	if cerr != nil {
		return nil, cerr
	}
	return result, nil
}

// chooseResult implements step 3(b): substitute a fresh empty result
// whenever the acquired one no longer exists on disk. The refcount
// increment from AcquireForFingerprintMiss is intentionally left untouched
// per spec.md §4.3: it is reconciled later by processResultAtomically.
func (r *Registry) chooseResult(project model.Project, prev *model.LastSuccessfulResult) *model.LastSuccessfulResult {
	if prev == nil {
		return emptyResult(project)
	}
	if _, err := os.Stat(prev.ClassesDir); err != nil {
		return emptyResult(project)
	}
	return prev
}

func emptyResult(project model.Project) *model.LastSuccessfulResult {
	return &model.LastSuccessfulResult{
		Project:            project,
		PopulatingProducts: onceaction.Noop(),
	}
}

// processResultAtomically is processResultAtomically (spec.md §4.4),
// specialized to the single-bundle granularity this registry operates at:
// one fingerprint corresponds to one project's compile, so "walking its
// result-DAG" reduces to examining that one ResultBundle.
func (r *Registry) processResultAtomically(ctx context.Context, fp model.OracleInputs, project model.Project, prev *model.LastSuccessfulResult, result *model.ResultBundle, cerr error) {
	r.mu.Lock()
	delete(r.running, fp)
	r.mu.Unlock()

	if cerr != nil || result == nil || result.Status != model.StatusOk || result.Successful == nil {
		r.Outputs.Release(prev)
		return
	}
	r.Outputs.Promote(ctx, project, result.Successful)
}

// joinExisting is step 4 of §4.3: replay the producer's mirror to client,
// await the shared result, then copy to client's own directory. Replay
// starts immediately (subscribing before the first await) so that no
// events emitted between subscription and the caller's next read are
// missed, and runs concurrently with awaiting the shared task, on the I/O
// scheduler — a dedicated goroutine here, since this registry has no pool
// of its own to dispatch onto.
func (r *Registry) joinExisting(ctx context.Context, client model.ClientInfo, bundle *model.CompileBundle, e *entry) (*model.ResultBundle, error) {
	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	sub := e.mirror.Subscribe()
	replayDone := make(chan struct{})
	go func() {
		defer close(replayDone)
		span := trace.Event(bundle.Project.Name+":replay", 0, trace.CategoryReplay)
		defer span.Done()
		ReplayTo(ctx, sub, e.previousResult, bundle.Reporter, bundle.Logger)
	}()

	result, err := e.task.await(ctx)
	if err != nil {
		<-replayDone
		return nil, err
	}
	<-replayDone

	if result.Status == model.StatusCancelled || result.Status != model.StatusOk || result.Successful == nil {
		return result, nil
	}

	dest, err := client.GetUniqueClassesDirFor(bundle.Project)
	if err != nil {
		return nil, xerrors.Errorf("resolving classes dir for deduplicated client: %w", err)
	}
	io := onceaction.New(func(ctx context.Context) error {
		return copyTree(result.Successful.ClassesDir, dest)
	})
	if err := io.Run(ctx); err != nil {
		return nil, &model.DeduplicationIOFailure{Project: bundle.Project, Dest: dest, Cause: err}
	}
	return result, nil
}

// ReplayTo drains sub, forwarding every recorded action to reporter and
// logger in emission order, reconstructing previous-problem diagnostics
// from chosen ahead of the live stream (spec.md §4.3/Table 1). It should be
// run concurrently with awaiting the shared result, on the I/O scheduler.
func ReplayTo(ctx context.Context, sub *mirror.Subscription, previous *model.LastSuccessfulResult, reporter model.Reporter, logger model.Logger) {
	if previous != nil {
		for _, d := range previous.PreviousDiagnostics {
			reporter.Problem(d.Project, d)
		}
	}
	for {
		a, ok := sub.Next(ctx)
		if !ok {
			return
		}
		replayOne(a, reporter, logger)
	}
}

func replayOne(a mirror.Action, reporter model.Reporter, logger model.Logger) {
	p := model.Project{Name: a.Project}
	switch a.Kind {
	case mirror.ReporterStartCompilation:
		reporter.StartCompilation(p)
	case mirror.ReporterStartIncrementalCycle:
		reporter.StartIncrementalCycle(p, a.Sources, a.OutputDirs)
	case mirror.ReporterProblem:
		reporter.Problem(p, model.Diagnostic{Project: p, Path: a.Path, Line: a.Line, Column: a.Column, Severity: a.Severity, Message: a.Message})
	case mirror.ReporterDiagnosticsSummary:
		reporter.DiagnosticsSummary(p, a.Message)
	case mirror.ReporterNextPhase:
		reporter.NextPhase(p, a.Phase)
	case mirror.ReporterProgress:
		reporter.Progress(p, a.Current, a.Total)
	case mirror.ReporterEndIncrementalCycle:
		reporter.EndIncrementalCycle(p, a.DurationMs, a.Result)
	case mirror.ReporterCancelled:
		reporter.Cancelled(p)
	case mirror.ReporterEndCompilation:
		reporter.EndCompilation(p, a.Code)
	case mirror.LoggerError:
		logger.Errorf("%s", a.Message)
	case mirror.LoggerWarn:
		logger.Warnf("%s", a.Message)
	case mirror.LoggerInfo:
		logger.Infof("%s", a.Message)
	case mirror.LoggerDebug:
		logger.Debugf("%s", a.Message)
	case mirror.LoggerTrace:
		logger.Debugf("%s", a.Message)
	}
}
