// Package mirror implements the event mirror (spec.md §4.7): a hot
// multicast stream of reporter and logger actions. The producer (a running
// compilation) publishes once; any number of subscribers, including ones
// that join after publishing started, read the full history independently
// and non-blockingly for the producer.
package mirror

import (
	"context"
	"sync"
)

// ActionKind tags which of the two sinks (Table 1 in spec.md) an Action
// came from, and which action within that sink.
type ActionKind int

const (
	ReporterStartCompilation ActionKind = iota
	ReporterStartIncrementalCycle
	ReporterProblem
	ReporterDiagnosticsSummary
	ReporterNextPhase
	ReporterProgress
	ReporterEndIncrementalCycle
	ReporterCancelled
	ReporterEndCompilation
	LoggerError
	LoggerWarn
	LoggerInfo
	LoggerDebug
	LoggerTrace
)

// Action is one recorded reporter or logger event. Only the fields relevant
// to Kind are populated; the rest are zero.
type Action struct {
	Kind ActionKind

	Project    string
	Sources    []string
	OutputDirs []string

	Path     string
	Line     int
	Column   int
	Severity string
	Message  string

	Phase          string
	Current, Total int
	DurationMs     int64
	Result         string
	Code           int
}

// Mirror is the multicast stream. Zero value is not usable; use New.
type Mirror struct {
	mu      sync.Mutex
	log     []Action
	closed  bool
	updated chan struct{}
}

func New() *Mirror {
	return &Mirror{updated: make(chan struct{})}
}

// Publish records an event and wakes any subscriber waiting for more. It
// never blocks on a slow subscriber: the log is an unbounded, append-only
// slice, which is acceptable given the size of a typical compilation's
// event stream (spec.md §4.7).
func (m *Mirror) Publish(a Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.log = append(m.log, a)
	close(m.updated)
	m.updated = make(chan struct{})
}

// Close marks the stream finished. Subscribers already at the end of the
// log observe end-of-stream on their next Next call; subscribers still
// catching up keep draining the backlog first.
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.updated)
}

// Subscription reads a Mirror's log independently of other subscribers,
// starting from the first event.
type Subscription struct {
	m   *Mirror
	idx int
}

// Subscribe returns a Subscription that will replay the full history
// recorded so far, followed by any future events, in emission order.
func (m *Mirror) Subscribe() *Subscription {
	return &Subscription{m: m}
}

// Next blocks until an event is available, the stream closes, or ctx is
// done. ok is false exactly when the stream is closed and fully drained.
func (s *Subscription) Next(ctx context.Context) (a Action, ok bool) {
	for {
		s.m.mu.Lock()
		if s.idx < len(s.m.log) {
			a = s.m.log[s.idx]
			s.idx++
			s.m.mu.Unlock()
			return a, true
		}
		if s.m.closed {
			s.m.mu.Unlock()
			return Action{}, false
		}
		wake := s.m.updated
		s.m.mu.Unlock()
		select {
		case <-wake:
		case <-ctx.Done():
			return Action{}, false
		}
	}
}

// All drains every event currently and eventually published, blocking until
// the stream closes. Used by tests and by simple replay paths that don't
// need to interleave with other work.
func (s *Subscription) All(ctx context.Context) []Action {
	var out []Action
	for {
		a, ok := s.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, a)
	}
}
