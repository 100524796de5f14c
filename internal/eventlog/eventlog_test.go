package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/bloopbuild/bloopd/internal/mirror"
)

func TestWriteThenReadAllRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.gz")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []mirror.Action{
		{Kind: mirror.ReporterStartCompilation, Project: "a"},
		{Kind: mirror.ReporterProblem, Project: "a", Path: "A.scala", Line: 3, Message: "oops"},
		{Kind: mirror.ReporterEndCompilation, Project: "a", Code: 0},
	}
	for _, a := range want {
		if err := w.Append(a); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDrainPersistsMirrorHistoryInOrder(t *testing.T) {
	m := mirror.New()
	m.Publish(mirror.Action{Kind: mirror.ReporterStartCompilation, Project: "a"})
	m.Publish(mirror.Action{Kind: mirror.LoggerInfo, Message: "hello"})
	m.Close()

	path := filepath.Join(t.TempDir(), "log.gz")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Drain(m, w); err != nil {
		t.Fatal(err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Kind != mirror.ReporterStartCompilation || got[1].Message != "hello" {
		t.Fatalf("got %+v, want start then the logged message, in order", got)
	}
}

func TestReadAllMissingFileErrors(t *testing.T) {
	_, err := ReadAll(filepath.Join(t.TempDir(), "does-not-exist.gz"))
	if err == nil {
		t.Fatal("expected an error reading a nonexistent log")
	}
}
