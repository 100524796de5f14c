package scheduler

import "testing"

func TestEventKindStringNamesKnownKinds(t *testing.T) {
	cases := map[EventKind]string{
		EventStartCompilation: "start_compilation",
		EventProblem:          "problem",
		EventDone:             "done",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestEventKindStringFallsBackForUnknownValue(t *testing.T) {
	if got := EventKind(999).String(); got != "unknown(999)" {
		t.Fatalf("got %q, want unknown(999)", got)
	}
}

func TestGettersHandleNilReceiver(t *testing.T) {
	var req *CompileRequest
	if got := req.GetProject(); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	var ref *ProjectRef
	if got := ref.GetName(); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}

func TestCompileRequestGetters(t *testing.T) {
	req := &CompileRequest{
		Project:   &ProjectRef{Name: "a", Config: "c1"},
		Sources:   []string{"A.scala"},
		Classpath: []string{"lib"},
		Options:   []string{"-opt"},
		Pipelined: true,
	}
	if req.GetProject().GetName() != "a" || req.GetProject().GetConfig() != "c1" {
		t.Fatalf("got %+v, want project a/c1", req.GetProject())
	}
	if !req.GetPipelined() {
		t.Fatal("GetPipelined() = false, want true")
	}
	if len(req.GetSources()) != 1 || len(req.GetClasspath()) != 1 || len(req.GetOptions()) != 1 {
		t.Fatalf("got %+v, want one entry per slice field", req)
	}
}
