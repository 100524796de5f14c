package sched

import (
	"context"
	"testing"
	"time"

	"github.com/bloopbuild/bloopd/internal/dedup"
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/outputs"
)

// pipelinedCompile simulates an external compiler that resolves the
// signature promise as soon as typechecking finishes, then resolves the
// Java-completion promise after javaDelay. If failJava is true, the Java
// phase is rejected instead of completed, so downstream dependents observe
// a fail-fast signal without their own compile having failed.
func pipelinedCompile(javaDelay time.Duration, failJava bool) model.CompileFunc {
	return func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		in.SignaturePromise.Resolve(&model.SignatureStore{
			Project:         in.Bundle.Project,
			DependentFacing: [][]byte{[]byte(in.Bundle.Project.Name)},
		})
		go func() {
			time.Sleep(javaDelay)
			if failJava {
				in.JavaCompletedPromise.Reject(&model.CompilerFailureError{Project: in.Bundle.Project})
			} else {
				in.JavaCompletedPromise.Resolve(struct{}{})
			}
		}()
		return &model.ResultBundle{Status: model.StatusOk, Successful: &model.LastSuccessfulResult{
			Project: in.Bundle.Project, ClassesDir: "/classes/" + in.Bundle.Project.Name,
		}}, nil
	}
}

func newPipelined(compile model.CompileFunc, classpath func(model.Project) []string) *Pipelined {
	return &Pipelined{
		Registry:  dedup.New(outputs.New()),
		Pool:      NewPool(0),
		Setup:     fakeSetup,
		Compile:   compile,
		Client:    noopClient{},
		Inputs:    func(p model.Project) model.BundleInputs { return model.BundleInputs{Project: p} },
		Classpath: classpath,
	}
}

func TestPipelinedLeafReturnsOnceSignaturesResolve(t *testing.T) {
	p := newPipelined(pipelinedCompile(30*time.Millisecond, false), func(model.Project) []string { return nil })
	leaf := &graph.Leaf{Project: model.Project{Name: "a"}}

	start := time.Now()
	node, err := graph.Traverse(context.Background(), leaf, p)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	ps, ok := node.Result.(*model.PartialSuccess)
	if !ok {
		t.Fatalf("got %T, want *model.PartialSuccess", node.Result)
	}
	if ps.IRStore == nil {
		t.Fatal("expected IRStore to be populated once signatures resolve")
	}
	if elapsed >= 25*time.Millisecond {
		t.Fatalf("Traverse took %v, should return as soon as signatures resolve, before the %v Java delay elapses", elapsed, 30*time.Millisecond)
	}

	if _, err := ps.JavaCompleted.Await(context.Background()); err != nil {
		t.Fatalf("background Java phase should eventually succeed: %v", err)
	}
}

func TestPipelinedParentAssemblesSignatureStoreInClasspathOrder(t *testing.T) {
	classpath := func(p model.Project) []string {
		if p.Name == "parent" {
			return []string{"b", "a"}
		}
		return nil
	}
	// The node's own IRStore is what parent's compile emits; the assembled
	// upstream store is what that compile receives as in.SignatureStore.
	received := make(chan *model.SignatureStore, 1)
	inner := pipelinedCompile(5*time.Millisecond, false)
	compile := func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		if in.Bundle.Project.Name == "parent" {
			received <- in.SignatureStore
		}
		return inner(ctx, in)
	}
	p := newPipelined(compile, classpath)
	a := &graph.Leaf{Project: model.Project{Name: "a"}}
	b := &graph.Leaf{Project: model.Project{Name: "b"}}
	parent := &graph.Parent{Project: model.Project{Name: "parent"}, Children: []graph.DAG{a, b}}

	node, err := graph.Traverse(context.Background(), parent, p)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.Result.(*model.PartialSuccess); !ok {
		t.Fatalf("got %T, want *model.PartialSuccess", node.Result)
	}
	store := <-received
	if len(store.DependentFacing) != 2 {
		t.Fatalf("got %d signature entries, want 2", len(store.DependentFacing))
	}
	// classpath lists b before a, so b's signature must come first regardless
	// of which child finished typechecking first.
	if string(store.DependentFacing[0]) != "b" || string(store.DependentFacing[1]) != "a" {
		t.Fatalf("got order %q, %q, want b then a (classpath order)", store.DependentFacing[0], store.DependentFacing[1])
	}
}

func TestPipelinedJavaFailurePropagatesFailFastToTrigger(t *testing.T) {
	p := newPipelined(pipelinedCompile(10*time.Millisecond, true), func(model.Project) []string { return nil })
	leaf := &graph.Leaf{Project: model.Project{Name: "a"}}

	node, err := graph.Traverse(context.Background(), leaf, p)
	if err != nil {
		t.Fatal(err)
	}
	ps := node.Result.(*model.PartialSuccess)

	signal, err := ps.JavaTrigger.Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !signal.FailFast {
		t.Fatal("expected the own project's rejected Java phase to produce a FailFast trigger")
	}
}

func TestPipelinedBlockedParentWhenChildFails(t *testing.T) {
	p := newPipelined(pipelinedCompile(time.Millisecond, false), func(model.Project) []string { return nil })
	leaf := &graph.Leaf{Project: model.Project{Name: "leaf"}}
	// Pre-seed a failing leaf result by wiring a compile that always fails,
	// applied only to this DAG's traversal.
	failP := newPipelined(func(ctx context.Context, in *model.Inputs) (*model.ResultBundle, error) {
		return &model.ResultBundle{Status: model.StatusFailed, Diagnostics: []model.Diagnostic{{Project: in.Bundle.Project, Message: "bad"}}}, nil
	}, func(model.Project) []string { return nil })

	parent := &graph.Parent{Project: model.Project{Name: "parent"}, Children: []graph.DAG{leaf}}
	node, err := graph.Traverse(context.Background(), parent, failP)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.Result.(*model.PartialFailure); !ok {
		t.Fatalf("got %T, want *model.PartialFailure", node.Result)
	}

	// A fully independent, healthy pipelined evaluator traversing the same
	// shape should still succeed — confirms the failure above isn't a
	// cross-test leak.
	node2, err := graph.Traverse(context.Background(), parent, p)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node2.Result.(*model.PartialFailure); ok {
		t.Fatal("expected the healthy evaluator's traversal to succeed")
	}
}
