// Package projectfile resolves a pb.Workspace textproto into the DAG shape
// internal/graph traverses, and reformats workspace files the same way
// distri's scaffold command canonicalizes build.textproto: by parsing and
// re-emitting through txtpbfmt.
package projectfile

import (
	"github.com/bloopbuild/bloopd/internal/graph"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/pb"
	"github.com/golang/protobuf/proto"
	"github.com/google/renameio"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"golang.org/x/xerrors"
)

// Resolved is a workspace after Dep names have been resolved into a DAG,
// plus lookup tables the scheduler's ProjectInputs and Classpath callbacks
// are built from.
type Resolved struct {
	Root       graph.DAG
	Descriptor map[model.Project]*pb.ProjectDescriptor
	byName     map[string]*pb.ProjectDescriptor
}

// Load reads and resolves the workspace textproto at path.
func Load(path string) (*Resolved, error) {
	ws, err := pb.ReadWorkspaceFile(path)
	if err != nil {
		return nil, xerrors.Errorf("reading workspace %s: %w", path, err)
	}
	return Resolve(ws)
}

// Resolve turns a flat pb.Workspace into a DAG, one node per project, edges
// following each descriptor's Dep names. The result is validated acyclic.
func Resolve(ws *pb.Workspace) (*Resolved, error) {
	r := &Resolved{
		Descriptor: make(map[model.Project]*pb.ProjectDescriptor),
		byName:     make(map[string]*pb.ProjectDescriptor),
	}
	for _, d := range ws.GetProject() {
		if _, ok := r.byName[d.GetName()]; ok {
			return nil, xerrors.Errorf("duplicate project name %q in workspace", d.GetName())
		}
		r.byName[d.GetName()] = d
	}

	nodes := make(map[string]graph.DAG)
	var build func(name string, visiting map[string]bool) (graph.DAG, error)
	build = func(name string, visiting map[string]bool) (graph.DAG, error) {
		if n, ok := nodes[name]; ok {
			return n, nil
		}
		d, ok := r.byName[name]
		if !ok {
			return nil, xerrors.Errorf("dependency %q is not defined in this workspace", name)
		}
		if visiting[name] {
			return nil, xerrors.Errorf("project %q participates in a dependency cycle", name)
		}
		visiting[name] = true

		proj := model.Project{Name: d.GetName(), Config: d.GetConfig()}
		r.Descriptor[proj] = d

		if len(d.GetDep()) == 0 {
			leaf := &graph.Leaf{Project: proj}
			nodes[name] = leaf
			return leaf, nil
		}
		children := make([]graph.DAG, len(d.GetDep()))
		for i, dep := range d.GetDep() {
			c, err := build(dep, visiting)
			if err != nil {
				return nil, err
			}
			children[i] = c
		}
		parent := &graph.Parent{Project: proj, Children: children}
		nodes[name] = parent
		delete(visiting, name)
		return parent, nil
	}

	// Only projects no other project depends on are roots; the rest are
	// reached through their dependents.
	depended := make(map[string]bool)
	for _, d := range ws.GetProject() {
		for _, dep := range d.GetDep() {
			depended[dep] = true
		}
	}
	var roots []graph.DAG
	for _, d := range ws.GetProject() {
		n, err := build(d.GetName(), map[string]bool{})
		if err != nil {
			return nil, err
		}
		if !depended[d.GetName()] {
			roots = append(roots, n)
		}
	}
	if len(roots) == 1 {
		r.Root = roots[0]
	} else {
		r.Root = &graph.Aggregate{DAGs: roots}
	}
	if err := graph.ValidateAcyclic(r.Root); err != nil {
		return nil, err
	}
	return r, nil
}

// Classpath returns p's classpath entries (upstream project names, in
// link order), the input internal/sched.Pipelined's Classpath callback
// needs to place upstream signature stores in the right order.
func (r *Resolved) Classpath(p model.Project) []string {
	if d, ok := r.Descriptor[p]; ok {
		return d.GetClasspath()
	}
	return nil
}

// BundleInputs builds the model.BundleInputs a SetupFunc consumes from p's
// descriptor.
func (r *Resolved) BundleInputs(p model.Project) model.BundleInputs {
	d := r.Descriptor[p]
	if d == nil {
		return model.BundleInputs{Project: p}
	}
	return model.BundleInputs{
		Project:   p,
		Sources:   d.GetSources(),
		Classpath: d.GetClasspath(),
		Options:   d.GetOptions(),
	}
}

// Format canonicalizes a workspace textproto's layout, the same
// parse-then-Format round trip distri's scaffold command applies to
// build.textproto before writing it back out.
func Format(src []byte) ([]byte, error) {
	return parser.Format(src)
}

// WriteFormatted parses ws, re-encodes it as textproto, canonicalizes the
// layout via Format, and writes it to path atomically.
func WriteFormatted(path string, ws *pb.Workspace) error {
	text := proto.MarshalTextString(ws)
	formatted, err := Format([]byte(text))
	if err != nil {
		return xerrors.Errorf("formatting %s: %w", path, err)
	}
	return renameio.WriteFile(path, formatted, 0644)
}
