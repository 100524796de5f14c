package model

import "github.com/bloopbuild/bloopd/internal/future"

// ResultKind tags the variants of PartialCompileResult (spec.md §3). Code
// that matches on Kind() must handle all four; internal/graph.BlockedBy
// matches the same four variants with a type switch.
type ResultKind int

const (
	KindEmpty ResultKind = iota
	KindSuccess
	KindFailure
	KindFailures
)

// PartialCompileResult is the result-DAG node payload: one of PartialEmpty,
// *PartialSuccess, *PartialFailure or *PartialFailures.
type PartialCompileResult interface {
	Kind() ResultKind
}

// PartialEmpty is the Aggregate placeholder (spec.md I1: "Aggregate nodes
// become Parent(PartialEmpty, dagResults)").
type PartialEmpty struct{}

func (PartialEmpty) Kind() ResultKind { return KindEmpty }

// PartialSuccess carries a compilation that is proceeding or done.
type PartialSuccess struct {
	Bundle *CompileBundle

	// IRStore holds this project's upstream-facing signatures, consulted by
	// dependents during pipelining.
	IRStore *SignatureStore

	// JavaCompleted resolves when this project's Java codegen phase
	// finishes (success) or is rejected (it failed). In sequential mode
	// this is pre-resolved at construction.
	JavaCompleted *future.Future[struct{}]

	// JavaTrigger is what a dependent consults before entering its own Java
	// phase: the aggregation of this project's and its ancestors' signals.
	JavaTrigger *future.Shared[JavaSignal]

	// Result is the best information available at the moment this node was
	// returned. In sequential mode it is already final. In pipelined mode
	// the node is returned as soon as IRStore is available, before Java
	// codegen finishes, so Result is provisional (Successful may be nil);
	// Background resolves to the final bundle once the Java phase and
	// registry bookkeeping complete.
	Result *ResultBundle

	// Background is always set; in sequential mode it is pre-resolved to
	// the same value as Result.
	Background *future.Shared[*ResultBundle]
}

func (*PartialSuccess) Kind() ResultKind { return KindSuccess }

// PartialFailure marks one project as failed or blocked.
type PartialFailure struct {
	Project Project
	Cause   error
	Result  *ResultBundle
}

func (*PartialFailure) Kind() ResultKind { return KindFailure }

// PartialFailures collects more than one sibling failure, e.g. when an
// Aggregate's children fail independently.
type PartialFailures struct {
	Failures []*PartialFailure
}

func (*PartialFailures) Kind() ResultKind { return KindFailures }
