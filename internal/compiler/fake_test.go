package compiler

import (
	"context"
	"testing"
	"time"

	"github.com/bloopbuild/bloopd/internal/dedup"
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/outputs"
	"github.com/bloopbuild/bloopd/internal/sched"
)

type fakeClient struct{ base string }

func (c fakeClient) GetUniqueClassesDirFor(p model.Project) (string, error) {
	return c.base + "/" + p.Name, nil
}

func TestFakePipelinedReturnsBeforeJavaDelayElapses(t *testing.T) {
	fake := &Fake{
		TypecheckDelay: 5 * time.Millisecond,
		JavaDelay:      200 * time.Millisecond,
		ClassesDirFor:  func(p model.Project) string { return "/shared/" + p.Name },
	}
	p := &sched.Pipelined{
		Registry:  dedup.New(outputs.New()),
		Pool:      sched.NewPool(0),
		Setup:     Setup(discardReporter{}, discardLogger{}),
		Compile:   fake.Compile,
		Client:    fakeClient{base: "/clients/1"},
		Inputs:    func(proj model.Project) model.BundleInputs { return model.BundleInputs{Project: proj} },
		Classpath: func(model.Project) []string { return nil },
	}

	leaf := &graph.Leaf{Project: model.Project{Name: "a"}}
	start := time.Now()
	node, err := graph.Traverse(context.Background(), leaf, p)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed >= 100*time.Millisecond {
		t.Fatalf("pipelined traversal took %v, should return shortly after typechecking (%v), well before the %v Java delay", elapsed, fake.TypecheckDelay, fake.JavaDelay)
	}
	ps, ok := node.Result.(*model.PartialSuccess)
	if !ok {
		t.Fatalf("got %T, want *model.PartialSuccess", node.Result)
	}

	final, err := ps.Background.Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != model.StatusOk || final.Successful.ClassesDir != "/shared/a" {
		t.Fatalf("got %+v, want an ok result for /shared/a", final)
	}
}

func TestFakeSequentialWaitsForFullCompile(t *testing.T) {
	fake := &Fake{
		TypecheckDelay: 20 * time.Millisecond,
		JavaDelay:      20 * time.Millisecond,
		ClassesDirFor:  func(p model.Project) string { return "/shared/" + p.Name },
	}
	s := &sched.Sequential{
		Registry: dedup.New(outputs.New()),
		Pool:     sched.NewPool(0),
		Setup:    Setup(discardReporter{}, discardLogger{}),
		Compile:  fake.Compile,
		Client:   fakeClient{base: "/clients/1"},
		Inputs:   func(proj model.Project) model.BundleInputs { return model.BundleInputs{Project: proj} },
	}

	leaf := &graph.Leaf{Project: model.Project{Name: "a"}}
	start := time.Now()
	node, err := graph.Traverse(context.Background(), leaf, s)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed < 35*time.Millisecond {
		t.Fatalf("sequential traversal took %v, should not return before typecheck+java (~%v) complete", elapsed, fake.TypecheckDelay+fake.JavaDelay)
	}
	if _, ok := node.Result.(*model.PartialSuccess); !ok {
		t.Fatalf("got %T, want *model.PartialSuccess", node.Result)
	}
}

func TestFakeCompileReportsFailureDiagnostics(t *testing.T) {
	fake := &Fake{
		Fail:          []model.Diagnostic{{Path: "A.scala", Line: 1, Message: "type mismatch"}},
		ClassesDirFor: func(p model.Project) string { return "/shared/" + p.Name },
	}
	s := &sched.Sequential{
		Registry: dedup.New(outputs.New()),
		Pool:     sched.NewPool(0),
		Setup:    Setup(discardReporter{}, discardLogger{}),
		Compile:  fake.Compile,
		Client:   fakeClient{base: "/clients/1"},
		Inputs:   func(proj model.Project) model.BundleInputs { return model.BundleInputs{Project: proj} },
	}

	leaf := &graph.Leaf{Project: model.Project{Name: "a"}}
	node, err := graph.Traverse(context.Background(), leaf, s)
	if err != nil {
		t.Fatal(err)
	}
	failure, ok := node.Result.(*model.PartialFailure)
	if !ok {
		t.Fatalf("got %T, want *model.PartialFailure", node.Result)
	}
	cfe, ok := failure.Cause.(*model.CompilerFailureError)
	if !ok || len(cfe.Diagnostics) != 1 {
		t.Fatalf("cause = %v, want a *model.CompilerFailureError with 1 diagnostic", failure.Cause)
	}
}
