package graph

import (
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type idNode struct{ id int64 }

func (n idNode) ID() int64 { return n.id }

// ValidateAcyclic reports an error if dag contains a cycle. It is grounded
// on internal/batch/batch.go's own use of simple.NewDirectedGraph plus
// topo.Sort to detect unbuildable dependency cycles — unlike that package,
// which breaks cycles for bootstrap packages, a compilation DAG that isn't
// already acyclic is a caller bug, so this only reports it.
func ValidateAcyclic(dag DAG) error {
	g := simple.NewDirectedGraph()
	ids := make(map[DAG]int64)
	var nextID int64

	var assign func(d DAG)
	assign = func(d DAG) {
		if _, ok := ids[d]; ok {
			return
		}
		id := nextID
		nextID++
		ids[d] = id
		g.AddNode(idNode{id})
		switch n := d.(type) {
		case *Leaf:
		case *Parent:
			for _, c := range n.Children {
				assign(c)
			}
		case *Aggregate:
			for _, c := range n.DAGs {
				assign(c)
			}
		}
	}
	assign(dag)

	edgesAdded := make(map[DAG]bool)
	var addEdges func(d DAG)
	addEdges = func(d DAG) {
		if edgesAdded[d] {
			return
		}
		edgesAdded[d] = true
		switch n := d.(type) {
		case *Parent:
			for _, c := range n.Children {
				g.SetEdge(g.NewEdge(idNode{ids[d]}, idNode{ids[c]}))
				addEdges(c)
			}
		case *Aggregate:
			for _, c := range n.DAGs {
				g.SetEdge(g.NewEdge(idNode{ids[d]}, idNode{ids[c]}))
				addEdges(c)
			}
		}
	}
	addEdges(dag)

	if _, err := topo.Sort(g); err != nil {
		return xerrors.Errorf("project graph contains a cycle: %w", err)
	}
	return nil
}
