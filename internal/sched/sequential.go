package sched

import (
	"context"

	"github.com/bloopbuild/bloopd/internal/dedup"
	"github.com/bloopbuild/bloopd/internal/future"
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
)

// Sequential is the §4.5 scheduler: a dependent only enters compile() once
// every dependency has fully finished.
type Sequential struct {
	Registry *dedup.Registry
	Pool     *Pool
	Setup    model.SetupFunc
	Compile  model.CompileFunc
	Client   model.ClientInfo
	Inputs   ProjectInputs
}

var _ graph.Evaluator = (*Sequential)(nil)

func (s *Sequential) EvalLeaf(ctx context.Context, project model.Project) (*graph.ResultNode, error) {
	return s.compile(ctx, project, nil, nil, nil)
}

func (s *Sequential) EvalParent(ctx context.Context, project model.Project, children []*graph.ResultNode) (*graph.ResultNode, error) {
	if blocked := blockedChildren(children); len(blocked) > 0 {
		result := &model.ResultBundle{Status: model.StatusBlocked, BlockedBy: blocked}
		return &graph.ResultNode{
			Result:   &model.PartialFailure{Project: project, Cause: &model.BlockedError{Project: project, Names: blocked}, Result: result},
			Children: children,
		}, nil
	}

	dependentResults := make(map[string]*model.LastSuccessfulResult)
	for _, ps := range transitiveSuccesses(children) {
		if ps.Result != nil && ps.Result.Successful != nil {
			dependentResults[ps.Result.Successful.ClassesDir] = ps.Result.Successful
		}
	}
	dependentProducts := make(map[string][]string)
	for _, c := range children {
		if ps, ok := c.Result.(*model.PartialSuccess); ok && ps.Result != nil && ps.Result.Successful != nil {
			dependentProducts[ps.Result.Successful.ClassesDir] = ps.Result.Products
		}
	}

	node, err := s.compile(ctx, project, dependentResults, dependentProducts, nil)
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

func transitiveSuccesses(children []*graph.ResultNode) []*model.PartialSuccess {
	var out []*model.PartialSuccess
	for _, c := range children {
		out = append(out, collectSuccesses(c)...)
	}
	return out
}

// compile runs a single project's compilation to completion (sequential
// mode never returns before the external compile() call is done), wrapping
// the outcome in the appropriate result-DAG node. javaTrigger is the
// constant "continue" signal and javaCompletedSignal a pre-completed
// promise, per spec.md §4.5's closing paragraph.
func (s *Sequential) compile(ctx context.Context, project model.Project, dependentResults map[string]*model.LastSuccessfulResult, dependentProducts map[string][]string, sigStore *model.SignatureStore) (*graph.ResultNode, error) {
	in := s.Inputs(project)
	continueTrigger := future.Go(func() (model.JavaSignal, error) { return model.ContinueSignal(), nil })

	buildInputs := func(bundle *model.CompileBundle) *model.Inputs {
		return &model.Inputs{
			Bundle:               bundle,
			Oracle:               bundle.Fingerprint,
			Sources:              in.Sources,
			Classpath:            in.Classpath,
			Options:              in.Options,
			SignatureStore:       sigStore,
			SignaturePromise:     future.Resolved[*model.SignatureStore](nil),
			JavaCompletedPromise: future.Resolved(struct{}{}),
			TransitiveJavaSignal: continueTrigger,
			SeparateJavaAndScala: false,
			DependentResults:     dependentResults,
			DependentProducts:    dependentProducts,
		}
	}

	result, err := Compute(ctx, s.Pool, func() (*model.ResultBundle, error) {
		return s.Registry.SetupAndDeduplicate(ctx, s.Client, in, s.Setup, s.Compile, buildInputs)
	})
	if err != nil || result.Status != model.StatusOk {
		return &graph.ResultNode{Result: failureFor(project, result, err)}, nil
	}

	background := future.Resolved(result)
	return &graph.ResultNode{Result: &model.PartialSuccess{
		Result:        result,
		Background:    background,
		JavaCompleted: future.Resolved(struct{}{}),
		JavaTrigger:   continueTrigger,
	}}, nil
}
