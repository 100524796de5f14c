package pb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/protobuf/proto"
)

func TestReadWorkspaceFileRoundTrips(t *testing.T) {
	ws := &Workspace{Project: []*ProjectDescriptor{
		{Name: "a", Sources: []string{"A.scala"}, Classpath: []string{"lib"}, Dep: []string{"b"}},
		{Name: "b", Sources: []string{"B.scala"}},
	}}
	text := proto.MarshalTextString(ws)

	path := filepath.Join(t.TempDir(), "workspace.textproto")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadWorkspaceFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.GetProject()) != 2 {
		t.Fatalf("got %d projects, want 2", len(got.GetProject()))
	}
	if got.GetProject()[0].GetName() != "a" || len(got.GetProject()[0].GetDep()) != 1 {
		t.Fatalf("got %+v, want project a depending on one project", got.GetProject()[0])
	}
}

func TestReadWorkspaceFileMissingErrors(t *testing.T) {
	_, err := ReadWorkspaceFile(filepath.Join(t.TempDir(), "nope.textproto"))
	if err == nil {
		t.Fatal("expected an error reading a nonexistent workspace file")
	}
}

func TestProjectDescriptorGettersHandleNilReceiver(t *testing.T) {
	var d *ProjectDescriptor
	if d.GetName() != "" || d.GetClasspath() != nil || d.GetDep() != nil {
		t.Fatalf("nil receiver getters should return zero values, got name=%q classpath=%v dep=%v", d.GetName(), d.GetClasspath(), d.GetDep())
	}
}
