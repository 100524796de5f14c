package graph

import "github.com/bloopbuild/bloopd/internal/model"

// BlockedBy returns the project that blocks this result-DAG, if any. It
// reports Some(project) iff the root is a failure or contains failures;
// otherwise None (spec.md §4.2). Aggregate (PartialEmpty) nodes walk their
// children left-to-right and the first blocked child wins.
func BlockedBy(n *ResultNode) (model.Project, bool) {
	if n == nil {
		return model.Project{}, false
	}
	switch r := n.Result.(type) {
	case *model.PartialFailure:
		return r.Project, true
	case *model.PartialFailures:
		return firstBlocked(r.Failures)
	case model.PartialEmpty:
		return blockedFromResults(n.Children)
	default:
		return model.Project{}, false
	}
}

func firstBlocked(failures []*model.PartialFailure) (model.Project, bool) {
	if len(failures) == 0 {
		return model.Project{}, false
	}
	return failures[0].Project, true
}

// blockedFromResults walks nodes left-to-right looking for the first
// blocked one. It recurses on the remainder of the slice, not the full
// slice — recursing on the full slice would never terminate.
func blockedFromResults(nodes []*ResultNode) (model.Project, bool) {
	if len(nodes) == 0 {
		return model.Project{}, false
	}
	if p, ok := BlockedBy(nodes[0]); ok {
		return p, true
	}
	return blockedFromResults(nodes[1:])
}
