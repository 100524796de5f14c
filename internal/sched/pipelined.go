package sched

import (
	"context"

	"github.com/bloopbuild/bloopd/internal/dedup"
	"github.com/bloopbuild/bloopd/internal/future"
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Pipelined is the §4.6 scheduler: a dependent starts as soon as its direct
// upstreams' signatures (not their full compiles) are available.
type Pipelined struct {
	Registry *dedup.Registry
	Pool     *Pool
	Setup    model.SetupFunc
	Compile  model.CompileFunc
	Client   model.ClientInfo
	Inputs   ProjectInputs

	// Classpath returns, for a project, the ordered raw classpath entries
	// it was configured with — used to sort upstream signature stores into
	// classpath order (spec.md §4.6(b)).
	Classpath func(project model.Project) []string
}

var _ graph.Evaluator = (*Pipelined)(nil)

func (p *Pipelined) EvalLeaf(ctx context.Context, project model.Project) (*graph.ResultNode, error) {
	return p.compile(ctx, project, nil, nil, nil, nil)
}

func (p *Pipelined) EvalParent(ctx context.Context, project model.Project, children []*graph.ResultNode) (*graph.ResultNode, error) {
	if blocked := blockedChildren(children); len(blocked) > 0 {
		result := &model.ResultBundle{Status: model.StatusBlocked, BlockedBy: blocked}
		return &graph.ResultNode{
			Result:   &model.PartialFailure{Project: project, Cause: &model.BlockedError{Project: project, Names: blocked}, Result: result},
			Children: children,
		}, nil
	}

	sigStore, err := p.assembleSignatureStore(project, children)
	if err != nil {
		return &graph.ResultNode{
			Result:   &model.PartialFailure{Project: project, Cause: err},
			Children: children,
		}, nil
	}

	var triggers []*future.Shared[model.JavaSignal]
	for _, c := range children {
		if ps, ok := c.Result.(*model.PartialSuccess); ok {
			triggers = append(triggers, ps.JavaTrigger)
		}
	}

	node, err := p.compile(ctx, project, nil, nil, sigStore, triggers)
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

// assembleSignatureStore implements spec.md §4.6(b): locate each direct
// upstream within this project's raw classpath by project name, sort by
// classpath index, and concatenate dependent-facing signatures in that
// order. Matching by name rather than by output directory is deliberate:
// the signature store is assembled as soon as an upstream's signature
// promise resolves, before its classes directory is even known (that only
// becomes available once its background compile finishes), so name is the
// only stable identifier available this early.
func (p *Pipelined) assembleSignatureStore(project model.Project, children []*graph.ResultNode) (*model.SignatureStore, error) {
	classpath := p.Classpath(project)
	index := make(map[string]int, len(classpath))
	for i, entry := range classpath {
		index[entry] = i
	}

	type located struct {
		idx   int
		store *model.SignatureStore
	}
	var found []located
	for _, c := range children {
		ps, ok := c.Result.(*model.PartialSuccess)
		if !ok || ps.IRStore == nil {
			continue
		}
		idx, ok := index[ps.IRStore.Project.Name]
		if !ok {
			continue
		}
		found = append(found, located{idx: idx, store: ps.IRStore})
	}
	slices.SortFunc(found, func(a, b located) bool { return a.idx < b.idx })

	var signatures [][]byte
	for _, f := range found {
		signatures = append(signatures, f.store.DependentFacing...)
	}
	return &model.SignatureStore{Project: project, DependentFacing: signatures}, nil
}

// combineTriggers materializes every upstream javaTrigger concurrently
// (spec.md §4.6(c): "derived from upstream jf's by materializing each") and
// folds them with JavaSignal.Combine. Grounded on
// internal/batch/batch.go's errgroup.WithContext fan-out, generalized from
// collecting the first error to collecting every value.
func combineTriggers(ctx context.Context, triggers []*future.Shared[model.JavaSignal]) (model.JavaSignal, error) {
	if len(triggers) == 0 {
		return model.ContinueSignal(), nil
	}
	signals := make([]model.JavaSignal, len(triggers))
	eg, ctx := errgroup.WithContext(ctx)
	for i, t := range triggers {
		i, t := i, t
		eg.Go(func() error {
			s, err := t.Await(ctx)
			if err != nil {
				return err
			}
			signals[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return model.JavaSignal{}, err
	}
	return model.CombineAll(signals), nil
}

// compile forks the external compile() call onto the computation pool and
// returns a result-DAG node as soon as the signature promise resolves,
// without waiting for Java codegen to finish (spec.md §4.6(a)).
func (p *Pipelined) compile(ctx context.Context, project model.Project, dependentResults map[string]*model.LastSuccessfulResult, dependentProducts map[string][]string, sigStore *model.SignatureStore, upstreamTriggers []*future.Shared[model.JavaSignal]) (*graph.ResultNode, error) {
	in := p.Inputs(project)
	cf := future.NewFuture[*model.SignatureStore]()
	jf := future.NewFuture[struct{}]()

	// trigger is this node's own javaTrigger, exposed to dependents: the
	// aggregation of every direct upstream trigger (already folding in
	// THEIR ancestors) with this project's own materialized jf (spec.md
	// §4.6(c)).
	// upstreamTrigger is what this project's own compile consults before
	// its Java phase; it must not wait on this project's own jf.
	upstreamTrigger := future.Go(func() (model.JavaSignal, error) {
		return combineTriggers(ctx, upstreamTriggers)
	})
	trigger := future.Go(func() (model.JavaSignal, error) {
		upstream, err := upstreamTrigger.Await(ctx)
		if err != nil {
			return model.JavaSignal{}, err
		}
		own := model.ContinueSignal()
		if _, jfErr := jf.Await(ctx); jfErr != nil {
			own = model.FailFastSignal(project)
		}
		return own.Combine(upstream), nil
	})

	buildInputs := func(bundle *model.CompileBundle) *model.Inputs {
		return &model.Inputs{
			Bundle:               bundle,
			Oracle:               bundle.Fingerprint,
			Sources:              in.Sources,
			Classpath:            in.Classpath,
			Options:              in.Options,
			SignatureStore:       sigStore,
			SignaturePromise:     cf,
			JavaCompletedPromise: jf,
			TransitiveJavaSignal: upstreamTrigger,
			SeparateJavaAndScala: true,
			DependentResults:     dependentResults,
			DependentProducts:    dependentProducts,
		}
	}

	background := future.Go(func() (*model.ResultBundle, error) {
		return Compute(ctx, p.Pool, func() (*model.ResultBundle, error) {
			return p.Registry.SetupAndDeduplicate(ctx, p.Client, in, p.Setup, p.Compile, buildInputs)
		})
	})

	// If compile finishes without ever resolving cf/jf — it errored before
	// reaching typechecking, or its CompileFunc implementation simply never
	// calls them — settle both here so a downstream consumer awaiting them
	// does not block forever.
	p.Pool.IO(func() {
		result, err := background.Await(context.Background())
		if !cf.Done() {
			cf.Reject(signaturePromiseCause(project, result, err))
		}
		if !jf.Done() {
			jf.Reject(signaturePromiseCause(project, result, err))
		}
	})

	sig, sigErr := cf.Await(ctx)
	if sigErr != nil {
		return &graph.ResultNode{Result: &model.PartialFailure{
			Project: project,
			Cause:   &model.SignaturePromiseFailure{Project: project, Cause: sigErr},
		}}, nil
	}

	return &graph.ResultNode{Result: &model.PartialSuccess{
		IRStore:       sig,
		JavaCompleted: jf,
		JavaTrigger:   trigger,
		Result:        &model.ResultBundle{Status: model.StatusOk},
		Background:    background,
	}}, nil
}

func signaturePromiseCause(project model.Project, result *model.ResultBundle, err error) error {
	if err != nil {
		return err
	}
	if result != nil && result.Status != model.StatusOk {
		return &model.CompilerFailureError{Project: project, Diagnostics: result.Diagnostics}
	}
	return xerrors.Errorf("%s: compile finished without emitting signatures", project)
}
