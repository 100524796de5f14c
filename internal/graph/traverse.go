package graph

import (
	"context"
	"sync"

	"github.com/bloopbuild/bloopd/internal/future"
	"github.com/bloopbuild/bloopd/internal/model"
	"github.com/bloopbuild/bloopd/internal/trace"
	"golang.org/x/xerrors"
)

// Evaluator supplies the per-node scheduling strategy (sequential or
// pipelined, internal/sched) that Traverse plugs in at Leaf and Parent
// nodes. Aggregate is handled identically by both strategies (spec.md
// §4.5/§4.6: "gather children, wrap in Parent(PartialEmpty, ...)"), so it is
// not part of this interface.
type Evaluator interface {
	EvalLeaf(ctx context.Context, project model.Project) (*ResultNode, error)
	EvalParent(ctx context.Context, project model.Project, children []*ResultNode) (*ResultNode, error)
}

// Traverse produces the result-DAG for dag, memoizing per input DAG node
// identity so that a sub-DAG shared by several parents is only evaluated
// once per traversal (spec.md §4.1). The memo table is local to this call —
// never shared across clients or across separate Traverse invocations.
func Traverse(ctx context.Context, dag DAG, ev Evaluator) (*ResultNode, error) {
	var memoMu sync.Mutex
	memo := make(map[DAG]*future.Shared[*ResultNode])
	var walk func(d DAG) *future.Shared[*ResultNode]
	walk = func(d DAG) *future.Shared[*ResultNode] {
		// walk is called from the goroutines of several parents at once.
		memoMu.Lock()
		defer memoMu.Unlock()
		if t, ok := memo[d]; ok {
			return t
		}
		t := future.Go(func() (*ResultNode, error) {
			switch n := d.(type) {
			case *Leaf:
				return ev.EvalLeaf(ctx, n.Project)
			case *Parent:
				childTasks := make([]*future.Shared[*ResultNode], len(n.Children))
				for i, c := range n.Children {
					childTasks[i] = walk(c)
				}
				span := trace.Event(n.Project.Name+":gather", 0, trace.CategoryGather).WithArgs(map[string]int{"children": len(n.Children)})
				children, err := future.AwaitAll(ctx, childTasks)
				span.Done()
				if err != nil {
					return nil, err
				}
				return ev.EvalParent(ctx, n.Project, children)
			case *Aggregate:
				childTasks := make([]*future.Shared[*ResultNode], len(n.DAGs))
				for i, c := range n.DAGs {
					childTasks[i] = walk(c)
				}
				span := trace.Event("aggregate:gather", 0, trace.CategoryGather).WithArgs(map[string]int{"children": len(n.DAGs)})
				children, err := future.AwaitAll(ctx, childTasks)
				span.Done()
				if err != nil {
					return nil, err
				}
				return &ResultNode{Result: model.PartialEmpty{}, Children: children}, nil
			default:
				return nil, xerrors.Errorf("traverse: unknown DAG node type %T", d)
			}
		})
		memo[d] = t
		return t
	}
	return walk(dag).Await(ctx)
}
