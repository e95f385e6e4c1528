package visibility

import "github.com/canopyviz/canopy/pkg/graphdata"

// State owns the expansion set across user interactions. It starts empty
// at graph load and changes only through Expand and Collapse; the engine
// never persists it (the owning caller may).
type State struct {
	expanded Set
	idx      *graphdata.Index
}

// NewState creates an empty expansion state over the given index.
func NewState(idx *graphdata.Index) *State {
	return &State{expanded: make(Set), idx: idx}
}

// SetIndex swaps the backing index after a data reload. Expansion entries
// for ids that no longer exist are dropped.
func (s *State) SetIndex(idx *graphdata.Index) {
	s.idx = idx
	for id := range s.expanded {
		if _, ok := idx.Node(id); !ok {
			delete(s.expanded, id)
		}
	}
}

// Expanded returns a copy of the current expansion set.
func (s *State) Expanded() Set {
	out := make(Set, len(s.expanded))
	for id := range s.expanded {
		out[id] = struct{}{}
	}
	return out
}

// IsExpanded reports whether id is open.
func (s *State) IsExpanded(id string) bool {
	return s.expanded.Has(id)
}

// Expand opens nodes for descendant disclosure. Unknown ids are ignored.
func (s *State) Expand(ids ...string) {
	for _, id := range ids {
		if _, ok := s.idx.Node(id); !ok {
			continue
		}
		s.expanded[id] = struct{}{}
	}
}

// Collapse closes a node and cascades over its descendants: every
// descendant currently in the set is removed too, so re-expanding the
// parent later starts with collapsed children. Siblings and ancestors are
// untouched.
func (s *State) Collapse(id string) {
	if !s.expanded.Has(id) {
		return
	}
	delete(s.expanded, id)
	for _, did := range s.idx.Descendants(id) {
		delete(s.expanded, did)
	}
}

// Toggle expands a collapsed node and collapses an expanded one.
func (s *State) Toggle(id string) {
	if s.expanded.Has(id) {
		s.Collapse(id)
	} else {
		s.Expand(id)
	}
}

// Reset collapses everything.
func (s *State) Reset() {
	s.expanded = make(Set)
}

// Resolve returns the currently visible node ids.
func (s *State) Resolve() Set {
	return Resolve(s.idx, s.expanded)
}
