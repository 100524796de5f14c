package sched

import (
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
)

// ProjectInputs resolves a project's raw BundleInputs. The DAG (built once
// by the caller from a project description) carries only model.Project
// values, so both schedulers need this to recover the sources/classpath/
// options a given project compiles with.
type ProjectInputs func(project model.Project) model.BundleInputs

// collectSuccesses walks a result-subtree and returns every PartialSuccess
// found, in left-to-right document order, including ones nested below
// Aggregate (PartialEmpty) nodes. Used to assemble the transitive
// dependentResults map (spec.md §4.5).
func collectSuccesses(n *graph.ResultNode) []*model.PartialSuccess {
	if n == nil {
		return nil
	}
	var out []*model.PartialSuccess
	if ps, ok := n.Result.(*model.PartialSuccess); ok {
		out = append(out, ps)
	}
	for _, c := range n.Children {
		out = append(out, collectSuccesses(c)...)
	}
	return out
}

// blockedChildren returns the direct children of a Parent node that are
// blocked or failed, per spec.md §4.5: "If any child (transitively) is
// blocked/failed, emit PartialFailure(project, BlockedCause, Blocked(names))
// where names is the direct failed children's project names."
func blockedChildren(children []*graph.ResultNode) []model.Project {
	var names []model.Project
	for _, c := range children {
		if p, ok := graph.BlockedBy(c); ok {
			names = append(names, p)
		}
	}
	return names
}

// failureFor wraps a non-Ok ResultBundle (or a hard error from setup/compile
// itself) in a PartialFailure, per spec.md §7: any thrown exception is
// wrapped with an opaque cause so graph semantics are preserved.
func failureFor(project model.Project, result *model.ResultBundle, err error) *model.PartialFailure {
	if err != nil {
		return &model.PartialFailure{Project: project, Cause: err, Result: result}
	}
	if result.Status == model.StatusCancelled {
		return &model.PartialFailure{Project: project, Cause: &model.CancelledError{Project: project}, Result: result}
	}
	return &model.PartialFailure{Project: project, Cause: &model.CompilerFailureError{Project: project, Diagnostics: result.Diagnostics}, Result: result}
}
