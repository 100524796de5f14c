package rpcserver

import (
	"fmt"
	"sync"

	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/trace"
	"github.com/bloopbuild/bloopd/pb/scheduler"
)

// streamSink serializes CompileEvents onto a gRPC server stream. A single
// model.Reporter/model.Logger pair is backed by one of these per request,
// since grpc.ServerStream.SendMsg is not safe for concurrent callers and a
// real compiler may call Reporter/Logger methods from more than one
// goroutine.
type streamSink struct {
	mu      sync.Mutex
	stream  scheduler.Scheduler_CompileServer
	sendErr error

	tid   int // logical trace track for this request, distinct per client stream
	spans map[string]*trace.PendingEvent
}

func (s *streamSink) send(ev *scheduler.CompileEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return
	}
	s.sendErr = s.stream.Send(ev)
}

func (s *streamSink) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendErr
}

// streamReporter implements model.Reporter by translating every call into a
// CompileEvent and forwarding it to the sink, the wire-level mirror of
// internal/dedup.replayOne's in-process translation.
type streamReporter struct{ sink *streamSink }

func (r streamReporter) StartCompilation(p model.Project) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventStartCompilation), Project: p.Name})
	r.sink.mu.Lock()
	if r.sink.spans == nil {
		r.sink.spans = make(map[string]*trace.PendingEvent)
	}
	r.sink.spans[p.Name] = trace.Event(p.Name, r.sink.tid, trace.CategoryCompile)
	r.sink.mu.Unlock()
}

func (r streamReporter) StartIncrementalCycle(p model.Project, sources, outputDirs []string) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventStartIncrementalCycle), Project: p.Name})
}

func (r streamReporter) Problem(p model.Project, d model.Diagnostic) {
	r.sink.send(&scheduler.CompileEvent{
		Kind:    int32(scheduler.EventProblem),
		Project: p.Name,
		Diagnostic: &scheduler.DiagnosticProto{
			Path:     d.Path,
			Line:     int32(d.Line),
			Column:   int32(d.Column),
			Severity: d.Severity,
			Message:  d.Message,
		},
	})
}

func (r streamReporter) DiagnosticsSummary(p model.Project, summary string) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventDiagnosticsSummary), Project: p.Name, Message: summary})
}

func (r streamReporter) NextPhase(p model.Project, phase string) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventNextPhase), Project: p.Name, Phase: phase})
}

func (r streamReporter) Progress(p model.Project, current, total int) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventProgress), Project: p.Name, Current: int32(current), Total: int32(total)})
}

func (r streamReporter) EndIncrementalCycle(p model.Project, durationMs int64, result string) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventEndIncrementalCycle), Project: p.Name, DurationMs: durationMs, Status: result})
}

func (r streamReporter) Cancelled(p model.Project) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventCancelled), Project: p.Name})
}

func (r streamReporter) EndCompilation(p model.Project, exitCode int) {
	r.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventEndCompilation), Project: p.Name, Code: int32(exitCode)})
	r.sink.mu.Lock()
	span := r.sink.spans[p.Name]
	delete(r.sink.spans, p.Name)
	r.sink.mu.Unlock()
	if span != nil {
		span.Done()
	}
}

// streamLogger implements model.Logger the same way.
type streamLogger struct {
	sink    *streamSink
	project string
}

func (l streamLogger) log(format string, args []interface{}) string {
	return fmt.Sprintf(format, args...)
}

func (l streamLogger) Errorf(format string, args ...interface{}) {
	l.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventLog), Project: l.project, Message: "ERROR " + l.log(format, args)})
}
func (l streamLogger) Warnf(format string, args ...interface{}) {
	l.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventLog), Project: l.project, Message: "WARN " + l.log(format, args)})
}
func (l streamLogger) Infof(format string, args ...interface{}) {
	l.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventLog), Project: l.project, Message: "INFO " + l.log(format, args)})
}
func (l streamLogger) Debugf(format string, args ...interface{}) {
	l.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventLog), Project: l.project, Message: "DEBUG " + l.log(format, args)})
}
func (l streamLogger) Tracef(format string, args ...interface{}) {
	l.sink.send(&scheduler.CompileEvent{Kind: int32(scheduler.EventLog), Project: l.project, Message: "TRACE " + l.log(format, args)})
}
