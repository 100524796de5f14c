package compiler

import (
	"context"
	"time"

	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/onceaction"
)

// Fake is a deterministic, in-memory CompileFunc used by tests to exercise
// both schedulers without shelling out to a real compiler, the same role
// internal/batch/batch.go's buildDry plays for package builds: a stand-in
// collaborator whose timing and outcome are scripted by the test.
type Fake struct {
	// TypecheckDelay is how long the compiler takes before resolving the
	// signature promise; it should be nonzero in pipelined tests so the
	// early-return behavior is actually observable.
	TypecheckDelay time.Duration
	// JavaDelay is how long Java codegen takes after typechecking.
	JavaDelay time.Duration

	// Fail, when non-nil, is returned as the typecheck failure (cf is
	// rejected and compile returns a CompilerFailure ResultBundle).
	Fail []model.Diagnostic

	// ClassesDirFor resolves the classes directory a successful compile of
	// project should report. Required.
	ClassesDirFor func(project model.Project) string
}

func (f *Fake) Compile(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
	p := in.Bundle.Project
	in.Bundle.Reporter.StartCompilation(p)
	defer in.Bundle.Reporter.EndCompilation(p, 0)

	select {
	case <-time.After(f.TypecheckDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// SignaturePromise/JavaCompletedPromise are pre-resolved by the
	// sequential scheduler; only a pipelined compile's fresh promises need
	// settling here.
	if len(f.Fail) > 0 {
		for _, d := range f.Fail {
			in.Bundle.Reporter.Problem(p, d)
		}
		if !in.SignaturePromise.Done() {
			in.SignaturePromise.Reject(errFailed(p))
		}
		if !in.JavaCompletedPromise.Done() {
			in.JavaCompletedPromise.Reject(errFailed(p))
		}
		return &model.ResultBundle{Status: model.StatusFailed, Diagnostics: f.Fail}, nil
	}

	if !in.SignaturePromise.Done() {
		store := &model.SignatureStore{Project: p, DependentFacing: [][]byte{[]byte(p.Name + ".sig")}}
		in.SignaturePromise.Resolve(store)
	}

	if in.SeparateJavaAndScala {
		if signal, err := in.TransitiveJavaSignal.Await(ctx); err == nil && signal.FailFast {
			if !in.JavaCompletedPromise.Done() {
				in.JavaCompletedPromise.Reject(errFailed(p))
			}
			return &model.ResultBundle{Status: model.StatusFailed}, nil
		}
	}
	select {
	case <-time.After(f.JavaDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if !in.JavaCompletedPromise.Done() {
		in.JavaCompletedPromise.Resolve(struct{}{})
	}

	dir := f.ClassesDirFor(p)
	return &model.ResultBundle{
		Status:   model.StatusOk,
		Products: []string{dir},
		Successful: &model.LastSuccessfulResult{
			Project:            p,
			ClassesDir:         dir,
			PopulatingProducts: onceaction.Noop(),
		},
	}, nil
}

func errFailed(p model.Project) error {
	return &model.CompilerFailureError{Project: p}
}
