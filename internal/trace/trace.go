// Package trace emits Chrome trace-event-format records for the
// scheduler's own tasks, so a run can be loaded into chrome://tracing for
// a timeline view of the concurrency model in spec.md §5. Every span is
// tagged with a Category identifying which of the three phases produced
// it — gathering a Parent/Aggregate node's children (internal/graph),
// compiling a project (cmd/bloopd's build reporter, internal/rpcserver), or replaying
// a deduplicated compile's mirrored events to a late joiner
// (internal/dedup) — so chrome://tracing's category filter can isolate
// one phase of a run instead of showing an undifferentiated span soup.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var start = time.Now()

var (
	sinkMu sync.Mutex
	sink   io.Writer = ioutil.Discard
)

// Category identifies which of the scheduler's three kinds of span
// produced an event.
type Category string

const (
	// CategoryCompile spans a single project's compile, from the reporter's
	// StartCompilation call to its EndCompilation call.
	CategoryCompile Category = "compile"
	// CategoryGather spans a Parent or Aggregate node waiting on its
	// children's result-DAG nodes (internal/graph.Traverse's future.AwaitAll
	// step).
	CategoryGather Category = "gather"
	// CategoryReplay spans a deduplicated caller's mirror replay
	// (internal/dedup.ReplayTo draining a late subscription).
	CategoryReplay Category = "replay"
)

// Sink writes all following Event()s as a Chrome trace event file into w.
func Sink(w io.Writer) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = w
	// Start the JSON Array Format
	w.Write([]byte{'['})
	// The ] at the end is optional, so we skip it
}

// Enable is a convenience function for creating a file in
// $TMPDIR/bloopd.traces/prefix.$PID.
//
// The filename assumes the OS does not frequently re-use the same pid.
func Enable(prefix string) error {
	fn := filepath.Join(os.TempDir(), "bloopd.traces", fmt.Sprintf("%s.%d", prefix, os.Getpid()))
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return err
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	Sink(f)
	return nil
}

type PendingEvent struct {
	Name           string      `json:"name"` // name of the event, as displayed in Trace Viewer
	Categories     string      `json:"cat"`  // event categories (comma-separated)
	Type           string      `json:"ph"`   // event type (single character)
	ClockTimestamp uint64      `json:"ts"`   // tracing clock timestamp (microsecond granularity)
	Duration       uint64      `json:"dur"`
	Pid            uint64      `json:"pid"` // process ID for the process that output this event
	Tid            uint64      `json:"tid"` // thread ID for the thread that output this event
	Args           interface{} `json:"args"`

	start time.Time
}

func (pe *PendingEvent) Done() {
	pe.Duration = uint64(time.Since(pe.start) / time.Microsecond)
	b, err := json.Marshal(pe)
	if err != nil {
		panic(err)
	}
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if _, err := sink.Write(append(b, ',')); err != nil {
		log.Printf("[trace] %v", err)
	}
}

// WithArgs attaches args (e.g. a project's fingerprint or a gather node's
// child count) to the span, surfaced in Trace Viewer's event detail pane.
func (pe *PendingEvent) WithArgs(args interface{}) *PendingEvent {
	pe.Args = args
	return pe
}

// Event starts a span named name on logical track tid (one per pool
// worker, per project for compile spans, or per client stream for
// rpcserver spans), tagged with cat. Call Done when the span ends.
func Event(name string, tid int, cat Category) *PendingEvent {
	return &PendingEvent{
		Name:           name,
		Categories:     string(cat),
		Type:           "X",
		ClockTimestamp: uint64(time.Since(start) / time.Microsecond),
		Tid:            uint64(tid),
		start:          time.Now(),
	}
}

// Close finalizes the sink installed by Enable/Sink, closing it if it
// implements io.Closer, then reverts to discarding further events.
// Registered as a shutdown hook by cmd/bloopd whenever -trace is set, so
// the trace file is closed deliberately instead of left open until the
// process exits. Safe to call even if Enable was never called.
func Close() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	w := sink
	sink = ioutil.Discard
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
