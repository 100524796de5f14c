package model

import "fmt"

// BlockedError is the cause attached to a PartialFailure whose project was
// never attempted because a transitive dependency failed (spec.md §7).
type BlockedError struct {
	Project Project
	Names   []Project // the direct failed children, not the full transitive set
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: blocked by %v", e.Project, e.Names)
}

// CompilerFailureError wraps a non-success ResultBundle from the external
// compiler collaborator.
type CompilerFailureError struct {
	Project     Project
	Diagnostics []Diagnostic
}

func (e *CompilerFailureError) Error() string {
	return fmt.Sprintf("%s: compile failed with %d diagnostic(s)", e.Project, len(e.Diagnostics))
}

// CancelledError indicates the task was cancelled rather than failing on
// its own merits.
type CancelledError struct {
	Project Project
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: cancelled", e.Project)
}

// DeduplicationIOFailure indicates that copying a shared classes directory
// into a deduplicated subscriber's own per-client directory failed. It is
// reported only to that subscriber; the originating compilation is
// unaffected.
type DeduplicationIOFailure struct {
	Project Project
	Dest    string
	Cause   error
}

func (e *DeduplicationIOFailure) Error() string {
	return fmt.Sprintf("%s: copying shared output to %s: %v", e.Project, e.Dest, e.Cause)
}

func (e *DeduplicationIOFailure) Unwrap() error { return e.Cause }

// SignaturePromiseFailure indicates a pipelined upstream failed before ever
// emitting its signatures, so a downstream dependent never got to start.
type SignaturePromiseFailure struct {
	Project   Project
	Dependency Project
	Cause     error
}

func (e *SignaturePromiseFailure) Error() string {
	return fmt.Sprintf("%s: signatures from %s never arrived: %v", e.Project, e.Dependency, e.Cause)
}

func (e *SignaturePromiseFailure) Unwrap() error { return e.Cause }
