// Package visibility decides which subset of the full node set is shown,
// driven by the user's expand/collapse actions.
//
// The disclosure rules are level based: the top three levels are always
// visible, deeper levels require their ancestor chain to be open. Resolve
// is a pure function of (node set, expansion set); the mutable expansion
// set itself lives in State.
package visibility

import (
	"sort"

	"github.com/canopyviz/canopy/pkg/graphdata"
	"github.com/canopyviz/canopy/pkg/metrics"
	"github.com/canopyviz/canopy/pkg/model"
)

// Set is a set of node ids.
type Set map[string]struct{}

// NewSet builds a Set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in sorted order.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the set of visible node ids for the given expansion set.
// Pure: identical inputs always produce identical outputs and neither
// argument is mutated.
//
// Rules per node:
//   - levels 0..2 are visible unconditionally
//   - level 3 needs at least one parent in the expansion set
//   - level 4 additionally needs that parent's own parent (the
//     grandparent) open
//   - level 5 (documents attached at the top) needs the root open
//
// Nodes whose parents reference nothing in the index never satisfy the
// deep-level rules; the index reports them as integrity warnings.
func Resolve(idx *graphdata.Index, expanded Set) Set {
	defer metrics.Timer(metrics.VisibilityResolve)()
	visible := make(Set)
	for _, n := range idx.Nodes() {
		if nodeVisible(idx, n, expanded) {
			visible[n.ID] = struct{}{}
		}
	}
	return visible
}

func nodeVisible(idx *graphdata.Index, n model.Node, expanded Set) bool {
	switch {
	case n.Level <= model.LevelCategory:
		return true
	case n.Level == model.LevelSubcategory:
		return len(openParents(idx, n, expanded)) > 0
	case n.Level == model.LevelDocument:
		// The whole chain must be disclosed: some open parent must have an
		// open parent of its own, otherwise collapsing a category would
		// leave its grandchildren floating. With multiple parents any one
		// fully disclosed chain suffices.
		for _, p := range openParents(idx, n, expanded) {
			if len(openParents(idx, p, expanded)) > 0 {
				return true
			}
		}
		return false
	case n.Level == model.LevelRootDoc:
		root := idx.Root()
		return root != nil && expanded.Has(root.ID)
	default:
		return false
	}
}

// openParents returns the existing parents of n present in the expansion
// set. Parents referencing missing nodes are skipped, so orphans simply
// never qualify.
func openParents(idx *graphdata.Index, n model.Node, expanded Set) []model.Node {
	var out []model.Node
	for _, pid := range n.ParentIDs {
		if !expanded.Has(pid) {
			continue
		}
		if p, ok := idx.Node(pid); ok {
			out = append(out, p)
		}
	}
	return out
}

// VisibleNodes filters nodes to the visible set, preserving input order.
func VisibleNodes(nodes []model.Node, visible Set) []model.Node {
	out := make([]model.Node, 0, len(visible))
	for _, n := range nodes {
		if visible.Has(n.ID) {
			out = append(out, n)
		}
	}
	return out
}

// VisibleEdges keeps only edges with both endpoints visible, the subset
// handed to the rendering layer.
func VisibleEdges(edges []model.Edge, visible Set) []model.Edge {
	out := make([]model.Edge, 0, len(edges))
	for _, e := range edges {
		if visible.Has(e.SourceID) && visible.Has(e.TargetID) {
			out = append(out, e)
		}
	}
	return out
}
