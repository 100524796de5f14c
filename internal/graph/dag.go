// Package graph implements the DAG traversal primitive and result algebra
// of spec.md §4.1/§4.2: a memoized post-order walk over a project
// dependency graph, and the blockedBy rule descendants consult to decide
// whether they may run.
package graph

import "github.com/bloopbuild/bloopd/internal/model"

// DAG is one of Leaf, Parent or Aggregate. Node identity for the
// traversal's memo table is pointer identity, so DAG nodes are always
// referenced through pointers.
type DAG interface {
	dagNode()
}

// Leaf is a project with no dependencies.
type Leaf struct {
	Project model.Project
}

func (*Leaf) dagNode() {}

// Parent is a project together with its dependency sub-DAGs.
type Parent struct {
	Project  model.Project
	Children []DAG
}

func (*Parent) dagNode() {}

// Aggregate is a root-less fan-out of independent DAGs scheduled together.
type Aggregate struct {
	DAGs []DAG
}

func (*Aggregate) dagNode() {}

// ResultNode is a result-DAG node: isomorphic in shape to the DAG it was
// computed from (spec.md invariant I1), with PartialCompileResult as the
// node payload and Aggregate collapsed into Parent(PartialEmpty, ...).
type ResultNode struct {
	Result   model.PartialCompileResult
	Children []*ResultNode
}
