package model

import "testing"

func TestCombineContinueIdentity(t *testing.T) {
	got := ContinueSignal().Combine(ContinueSignal())
	if got.FailFast {
		t.Fatalf("got %+v, want Continue", got)
	}
}

func TestCombineFailFastAbsorbsContinue(t *testing.T) {
	fail := FailFastSignal(Project{Name: "a"})
	if got := fail.Combine(ContinueSignal()); !got.FailFast || len(got.Failed) != 1 {
		t.Fatalf("got %+v, want FailFast([a])", got)
	}
	if got := ContinueSignal().Combine(fail); !got.FailFast || len(got.Failed) != 1 {
		t.Fatalf("got %+v, want FailFast([a])", got)
	}
}

func TestCombineFailFastConcatenatesFailed(t *testing.T) {
	a := FailFastSignal(Project{Name: "a"})
	b := FailFastSignal(Project{Name: "b"}, Project{Name: "c"})
	got := a.Combine(b)
	if !got.FailFast || len(got.Failed) != 3 {
		t.Fatalf("got %+v, want FailFast([a b c])", got)
	}
	if got.Failed[0].Name != "a" || got.Failed[1].Name != "b" || got.Failed[2].Name != "c" {
		t.Fatalf("got %v, want a, b, c in that order", got.Failed)
	}
}

func TestCombineAllFoldsFromContinue(t *testing.T) {
	if got := CombineAll(nil); got.FailFast {
		t.Fatalf("got %+v, want Continue for an empty slice", got)
	}
	signals := []JavaSignal{ContinueSignal(), FailFastSignal(Project{Name: "x"}), ContinueSignal()}
	got := CombineAll(signals)
	if !got.FailFast || len(got.Failed) != 1 || got.Failed[0].Name != "x" {
		t.Fatalf("got %+v, want FailFast([x])", got)
	}
}
