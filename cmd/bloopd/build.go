package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	bloopd "github.com/bloopbuild/bloopd"
	"github.com/bloopbuild/bloopd/internal/compiler"
	"github.com/bloopbuild/bloopd/internal/dedup"
	"github.com/bloopbuild/bloopd/internal/env"
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/outputs"
	"github.com/bloopbuild/bloopd/internal/projectfile"
	"github.com/bloopbuild/bloopd/internal/sched"
	"github.com/bloopbuild/bloopd/internal/statusline"
	"github.com/bloopbuild/bloopd/internal/trace"
)

const buildHelp = `bloopd build [-flags]

build resolves projects.textproto into a DAG and compiles it in-process,
without a gRPC server — useful for one-shot local builds and for exercising
the scheduler's own CLI surface.
`

type singleClient struct{ dir string }

func (c singleClient) GetUniqueClassesDirFor(p model.Project) (string, error) {
	dir := filepath.Join(c.dir, p.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func cmdbuild(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		projects    = fset.String("projects", "projects.textproto", "path to the workspace's project description")
		pipeline    = fset.Bool("pipeline", false, "use the pipelined scheduler instead of the sequential one")
		jobs        = fset.Int("jobs", 0, "maximum concurrent compilations (0 = GOMAXPROCS)")
		clientDir   = fset.String("client_dir", "", "directory to populate with classes directories (defaults to $BLOOPROOT/build)")
		tracePrefix = fset.String("trace", "", "if set, write a chrome://tracing event file to $TMPDIR/bloopd.traces/<prefix>.<pid>")
	)
	fset.Usage = usage(fset, buildHelp)
	fset.Parse(args)

	base := *clientDir
	if base == "" {
		base = env.BloopRoot + "/build"
	}

	if *tracePrefix != "" {
		if err := trace.Enable(*tracePrefix); err != nil {
			return fmt.Errorf("enabling trace: %w", err)
		}
		bloopd.RegisterAtExit("trace", trace.Close)
	}

	resolved, err := projectfile.Load(*projects)
	if err != nil {
		return err
	}

	registry := dedup.New(outputs.New())
	pool := sched.NewPool(*jobs)
	client := singleClient{dir: base}
	fake := &compiler.Fake{
		TypecheckDelay: 5 * time.Millisecond,
		JavaDelay:      5 * time.Millisecond,
		ClassesDirFor: func(p model.Project) string {
			return filepath.Join(env.BloopRoot, "shared", p.Name)
		},
	}

	reporter := newCliReporter(os.Stdout.Fd())
	logger := cliLogger{}
	setup := compiler.Setup(reporter, logger)

	var ev graph.Evaluator
	if *pipeline {
		ev = &sched.Pipelined{
			Registry: registry, Pool: pool, Setup: setup, Compile: fake.Compile,
			Client: client, Inputs: resolved.BundleInputs, Classpath: resolved.Classpath,
		}
	} else {
		ev = &sched.Sequential{
			Registry: registry, Pool: pool, Setup: setup, Compile: fake.Compile,
			Client: client, Inputs: resolved.BundleInputs,
		}
	}

	node, err := graph.Traverse(ctx, resolved.Root, ev)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("build: %w", bloopd.CancelCause(ctx))
		}
		return err
	}
	if p, blocked := graph.BlockedBy(node); blocked {
		return fmt.Errorf("build blocked by %s", p)
	}
	log.Printf("build finished")
	return nil
}

// cliReporter reports straight to the standard logger, the same role
// distri's batch.Ctx.Log plays for -jobs-parallel package builds, plus a
// live terminal status line and a chrome://tracing span per project's
// compile (active only when trace.Enable was called).
type cliReporter struct {
	status *statusline.Status

	mu      sync.Mutex
	spans   map[string]*trace.PendingEvent
	tids    map[string]int
	nextTid int
}

func newCliReporter(fd uintptr) *cliReporter {
	return &cliReporter{
		status: statusline.New(fd),
		spans:  make(map[string]*trace.PendingEvent),
		tids:   make(map[string]int),
	}
}

func (r *cliReporter) tidFor(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tid, ok := r.tids[name]; ok {
		return tid
	}
	tid := r.nextTid
	r.nextTid++
	r.tids[name] = tid
	return tid
}

func (r *cliReporter) StartCompilation(p model.Project) {
	log.Printf("%s: compiling", p)
	r.status.Update(p.Name, fmt.Sprintf("%s: compiling", p.Name))
	span := trace.Event(p.Name, r.tidFor(p.Name), trace.CategoryCompile)
	r.mu.Lock()
	r.spans[p.Name] = span
	r.mu.Unlock()
}
func (r *cliReporter) StartIncrementalCycle(p model.Project, sources, outputDirs []string) {
	log.Printf("%s: incremental cycle (%d sources)", p, len(sources))
}
func (r *cliReporter) Problem(p model.Project, d model.Diagnostic) {
	log.Printf("%s: %s:%d:%d: %s: %s", p, d.Path, d.Line, d.Column, d.Severity, d.Message)
}
func (r *cliReporter) DiagnosticsSummary(p model.Project, summary string) { log.Printf("%s: %s", p, summary) }
func (r *cliReporter) NextPhase(p model.Project, phase string) {
	log.Printf("%s: phase %s", p, phase)
	r.status.Update(p.Name, fmt.Sprintf("%s: %s", p.Name, phase))
}
func (r *cliReporter) Progress(p model.Project, current, total int) {
	log.Printf("%s: %d/%d", p, current, total)
}
func (r *cliReporter) EndIncrementalCycle(p model.Project, durationMs int64, result string) {
	log.Printf("%s: cycle done in %dms: %s", p, durationMs, result)
}
func (r *cliReporter) Cancelled(p model.Project) {
	log.Printf("%s: cancelled", p)
	r.status.Clear(p.Name)
}
func (r *cliReporter) EndCompilation(p model.Project, code int) {
	log.Printf("%s: done (exit %d)", p, code)
	r.mu.Lock()
	span := r.spans[p.Name]
	delete(r.spans, p.Name)
	r.mu.Unlock()
	if span != nil {
		span.Done()
	}
	r.status.Clear(p.Name)
}

type cliLogger struct{}

func (cliLogger) Errorf(format string, args ...interface{}) { log.Printf("ERROR "+format, args...) }
func (cliLogger) Warnf(format string, args ...interface{})  { log.Printf("WARN "+format, args...) }
func (cliLogger) Infof(format string, args ...interface{})  { log.Printf("INFO "+format, args...) }
func (cliLogger) Debugf(format string, args ...interface{}) { log.Printf("DEBUG "+format, args...) }
func (cliLogger) Tracef(format string, args ...interface{}) { log.Printf("TRACE "+format, args...) }
