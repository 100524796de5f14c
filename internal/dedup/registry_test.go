package dedup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/outputs"
)

// recordingSink is a minimal model.Reporter + model.Logger test double that
// records every call it receives, so a test can assert a late subscriber
// saw the same calls a fresh compile would have produced.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingSink) add(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}
func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *recordingSink) StartCompilation(p model.Project) { s.add("start(%s)", p.Name) }
func (s *recordingSink) StartIncrementalCycle(p model.Project, sources, outputDirs []string) {
	s.add("cycle(%s)", p.Name)
}
func (s *recordingSink) Problem(p model.Project, d model.Diagnostic) { s.add("problem(%s,%s)", p.Name, d.Message) }
func (s *recordingSink) DiagnosticsSummary(p model.Project, summary string) {
	s.add("summary(%s,%s)", p.Name, summary)
}
func (s *recordingSink) NextPhase(p model.Project, phase string)       { s.add("phase(%s,%s)", p.Name, phase) }
func (s *recordingSink) Progress(p model.Project, current, total int)  { s.add("progress(%s,%d/%d)", p.Name, current, total) }
func (s *recordingSink) EndIncrementalCycle(p model.Project, durationMs int64, result string) {
	s.add("endcycle(%s,%s)", p.Name, result)
}
func (s *recordingSink) Cancelled(p model.Project)            { s.add("cancelled(%s)", p.Name) }
func (s *recordingSink) EndCompilation(p model.Project, code int) { s.add("end(%s,%d)", p.Name, code) }
func (s *recordingSink) Errorf(format string, args ...interface{}) { s.add("ERROR "+format, args...) }
func (s *recordingSink) Warnf(format string, args ...interface{})  { s.add("WARN "+format, args...) }
func (s *recordingSink) Infof(format string, args ...interface{})  { s.add("INFO "+format, args...) }
func (s *recordingSink) Debugf(format string, args ...interface{}) { s.add("DEBUG "+format, args...) }
func (s *recordingSink) Tracef(format string, args ...interface{}) { s.add("TRACE "+format, args...) }

type fixedClient struct{ dir string }

func (c fixedClient) GetUniqueClassesDirFor(p model.Project) (string, error) { return c.dir, nil }

func setupFunc(oracle model.OracleInputs, sink *recordingSink) model.SetupFunc {
	return func(ctx context.Context, in model.BundleInputs) (*model.CompileBundle, error) {
		return &model.CompileBundle{
			Project:     in.Project,
			Fingerprint: oracle,
			Reporter:    sink,
			Logger:      sink,
		}, nil
	}
}

func TestSetupAndDeduplicateRunsCompileExactlyOnceForSameFingerprint(t *testing.T) {
	r := New(outputs.New())
	oracle := model.OracleInputs{Project: model.Project{Name: "a"}, SourcesDigest: "s1"}

	var compileCalls int32
	release := make(chan struct{})
	compile := func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		atomic.AddInt32(&compileCalls, 1)
		<-release
		return &model.ResultBundle{Status: model.StatusOk, Successful: &model.LastSuccessfulResult{
			Project: in.Bundle.Project, ClassesDir: t.TempDir(),
		}}, nil
	}
	buildInputs := func(b *model.CompileBundle) *model.Inputs { return &model.Inputs{Bundle: b} }

	sinkA := &recordingSink{}
	sinkB := &recordingSink{}

	var wg sync.WaitGroup
	results := make([]*model.ResultBundle, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(oracle, sinkA), compile, buildInputs)
	}()

	time.Sleep(20 * time.Millisecond) // let the first call register itself as running
	go func() {
		defer wg.Done()
		results[1], errs[1] = r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(oracle, sinkB), compile, buildInputs)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if errs[0] != nil || errs[1] != nil {
		t.Fatalf("unexpected errors: %v, %v", errs[0], errs[1])
	}
	if got := atomic.LoadInt32(&compileCalls); got != 1 {
		t.Fatalf("compile ran %d times, want exactly 1", got)
	}
	if results[0].Status != model.StatusOk || results[1].Status != model.StatusOk {
		t.Fatalf("both callers should observe the same successful result")
	}
}

func TestSetupAndDeduplicateReplaysEventsToLateSubscriber(t *testing.T) {
	r := New(outputs.New())
	oracle := model.OracleInputs{Project: model.Project{Name: "a"}, SourcesDigest: "s1"}

	started := make(chan struct{})
	release := make(chan struct{})
	compile := func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		in.Bundle.Reporter.StartCompilation(in.Bundle.Project)
		in.Bundle.Logger.Infof("compiling")
		close(started)
		<-release
		in.Bundle.Reporter.EndCompilation(in.Bundle.Project, 0)
		return &model.ResultBundle{Status: model.StatusOk, Successful: &model.LastSuccessfulResult{
			Project: in.Bundle.Project, ClassesDir: t.TempDir(),
		}}, nil
	}
	buildInputs := func(b *model.CompileBundle) *model.Inputs { return &model.Inputs{Bundle: b} }

	sinkA := &recordingSink{}
	sinkB := &recordingSink{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(oracle, sinkA), compile, buildInputs)
	}()

	<-started
	go func() {
		defer wg.Done()
		r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(oracle, sinkB), compile, buildInputs)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	callsB := sinkB.snapshot()
	if len(callsB) == 0 {
		t.Fatal("late subscriber saw no replayed events")
	}
	foundStart, foundEnd := false, false
	for _, c := range callsB {
		if c == "start(a)" {
			foundStart = true
		}
		if c == "end(a,0)" {
			foundEnd = true
		}
	}
	if !foundStart || !foundEnd {
		t.Fatalf("late subscriber's replayed events = %v, want start(a) and end(a,0) present", callsB)
	}
}

func TestSetupAndDeduplicateDifferentFingerprintsRunIndependently(t *testing.T) {
	r := New(outputs.New())
	var compileCalls int32
	compile := func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		atomic.AddInt32(&compileCalls, 1)
		return &model.ResultBundle{Status: model.StatusOk, Successful: &model.LastSuccessfulResult{
			Project: in.Bundle.Project, ClassesDir: t.TempDir(),
		}}, nil
	}
	buildInputs := func(b *model.CompileBundle) *model.Inputs { return &model.Inputs{Bundle: b} }

	o1 := model.OracleInputs{Project: model.Project{Name: "a"}, SourcesDigest: "s1"}
	o2 := model.OracleInputs{Project: model.Project{Name: "a"}, SourcesDigest: "s2"}

	if _, err := r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(o1, &recordingSink{}), compile, buildInputs); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(o2, &recordingSink{}), compile, buildInputs); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&compileCalls); got != 2 {
		t.Fatalf("compile ran %d times, want 2 (distinct fingerprints must not dedup)", got)
	}
}

func TestSetupAndDeduplicatePropagatesCompileFailure(t *testing.T) {
	r := New(outputs.New())
	oracle := model.OracleInputs{Project: model.Project{Name: "a"}, SourcesDigest: "s1"}
	wantErr := &model.CompilerFailureError{Project: model.Project{Name: "a"}}
	compile := func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		return nil, wantErr
	}
	buildInputs := func(b *model.CompileBundle) *model.Inputs { return &model.Inputs{Bundle: b} }

	_, err := r.SetupAndDeduplicate(context.Background(), fixedClient{dir: t.TempDir()}, model.BundleInputs{Project: model.Project{Name: "a"}}, setupFunc(oracle, &recordingSink{}), compile, buildInputs)
	if err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}
