package model

import (
	"context"

	"github.com/bloopbuild/bloopd/internal/future"
	"github.com/bloopbuild/bloopd/internal/mirror"
)

// Reporter is the external collaborator that surfaces compiler progress to
// a client. Table 1 in spec.md §4.3 enumerates exactly these calls.
type Reporter interface {
	StartCompilation(p Project)
	StartIncrementalCycle(p Project, sources, outputDirs []string)
	Problem(p Project, d Diagnostic)
	DiagnosticsSummary(p Project, summary string)
	NextPhase(p Project, phase string)
	Progress(p Project, current, total int)
	EndIncrementalCycle(p Project, durationMs int64, result string)
	Cancelled(p Project)
	EndCompilation(p Project, exitCode int)
}

// Logger is the external collaborator receiving free-form log lines.
type Logger interface {
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Tracef(format string, args ...interface{})
}

// CompileBundle is the per-invocation context threaded through a single
// compilation (spec.md §3).
type CompileBundle struct {
	Project        Project
	Fingerprint    OracleInputs
	Reporter       Reporter
	Logger         Logger
	PreviousResult *LastSuccessfulResult
	Mirror         *mirror.Mirror
}

// Inputs is what the external compile() collaborator receives
// (spec.md §6).
type Inputs struct {
	Bundle   *CompileBundle
	Oracle   OracleInputs
	Sources  []string
	Classpath []string
	Options  []string

	// SignatureStore carries the assembled, classpath-ordered, dependency
	// signatures this project depends on (empty for a Leaf).
	SignatureStore *SignatureStore

	// SignaturePromise is resolved by the compiler as soon as typechecking
	// of THIS project finishes, letting the pipelined scheduler release
	// dependents before Java codegen completes.
	SignaturePromise *future.Future[*SignatureStore]

	// JavaCompletedPromise is resolved when this project's own Java codegen
	// phase finishes (success) or fails.
	JavaCompletedPromise *future.Future[struct{}]

	// TransitiveJavaSignal is the aggregated upstream trigger this compile
	// must consult before entering its own Java phase.
	TransitiveJavaSignal *future.Shared[JavaSignal]

	SeparateJavaAndScala bool

	// DependentResults and DependentProducts are keyed by each upstream's
	// classes directory (spec.md §4.5).
	DependentResults  map[string]*LastSuccessfulResult
	DependentProducts map[string][]string
}

// SetupFunc derives a CompileBundle (and therefore a fingerprint) from
// BundleInputs. Equal BundleInputs must yield bundles with equal
// fingerprints.
type SetupFunc func(ctx context.Context, in BundleInputs) (*CompileBundle, error)

// CompileFunc is the external compiler collaborator.
type CompileFunc func(ctx context.Context, in *Inputs) (*ResultBundle, error)
