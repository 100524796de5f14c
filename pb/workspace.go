// Package pb holds the wire and on-disk message types for the scheduler,
// hand-written in the shape protoc-gen-go would produce (so that
// golang/protobuf's proto.UnmarshalText/proto.Marshal and grpc's codec work
// against them without running protoc against a .proto source).
package pb

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/golang/protobuf/proto"
)

// ProjectDescriptor is one project's on-disk description: its sources,
// classpath, compiler options, and the names of the projects it depends
// on. A Workspace is a flat list of these; internal/projectfile resolves
// Dep names into a DAG.
type ProjectDescriptor struct {
	Name       string   `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Config     string   `protobuf:"bytes,2,opt,name=config,proto3" json:"config,omitempty"`
	Sources    []string `protobuf:"bytes,3,rep,name=sources,proto3" json:"sources,omitempty"`
	Classpath  []string `protobuf:"bytes,4,rep,name=classpath,proto3" json:"classpath,omitempty"`
	Options    []string `protobuf:"bytes,5,rep,name=options,proto3" json:"options,omitempty"`
	Dep        []string `protobuf:"bytes,6,rep,name=dep,proto3" json:"dep,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *ProjectDescriptor) Reset()         { *m = ProjectDescriptor{} }
func (m *ProjectDescriptor) String() string { return proto.CompactTextString(m) }
func (*ProjectDescriptor) ProtoMessage()    {}

func (m *ProjectDescriptor) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

func (m *ProjectDescriptor) GetConfig() string {
	if m != nil {
		return m.Config
	}
	return ""
}

func (m *ProjectDescriptor) GetSources() []string {
	if m != nil {
		return m.Sources
	}
	return nil
}

func (m *ProjectDescriptor) GetClasspath() []string {
	if m != nil {
		return m.Classpath
	}
	return nil
}

func (m *ProjectDescriptor) GetOptions() []string {
	if m != nil {
		return m.Options
	}
	return nil
}

func (m *ProjectDescriptor) GetDep() []string {
	if m != nil {
		return m.Dep
	}
	return nil
}

// Workspace is the top-level message a projectfile textproto contains: the
// full set of projects participating in one build.
type Workspace struct {
	Project []*ProjectDescriptor `protobuf:"bytes,1,rep,name=project,proto3" json:"project,omitempty"`

	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Workspace) Reset()         { *m = Workspace{} }
func (m *Workspace) String() string { return proto.CompactTextString(m) }
func (*Workspace) ProtoMessage()    {}

func (m *Workspace) GetProject() []*ProjectDescriptor {
	if m != nil {
		return m.Project
	}
	return nil
}

var workspaceBufPool = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// ReadWorkspaceFile parses path as a Workspace textproto, the same
// buffered-read-then-UnmarshalText idiom pb.ReadBuildFile used for
// build.textproto.
func ReadWorkspaceFile(path string) (*Workspace, error) {
	var ws Workspace
	b := workspaceBufPool.Get().(*bytes.Buffer)
	b.Reset()
	defer workspaceBufPool.Put(b)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := io.Copy(b, f); err != nil {
		return nil, err
	}
	if err := proto.UnmarshalText(b.String(), &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}
