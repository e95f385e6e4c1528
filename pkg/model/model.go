// Package model defines the node/edge representation shared by the layout
// engine, the visibility resolver and the datasources.
//
// Nodes form a multi-parent hierarchy: every non-root node carries at least
// one parent id, and levels never decrease along a parent→child edge. The
// engine itself never owns node storage; callers supply fresh snapshots on
// every layout invocation and persist positions themselves.
package model

import (
	"fmt"
	"sort"
)

// Kind identifies what an entity in the hierarchy represents.
type Kind string

const (
	KindRoot     Kind = "root"
	KindPerson   Kind = "person"
	KindCategory Kind = "category"
	KindDocument Kind = "document"
	KindFolder   Kind = "folder"
	KindPet      Kind = "pet"
	KindAsset    Kind = "asset"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRoot, KindPerson, KindCategory, KindDocument, KindFolder, KindPet, KindAsset:
		return true
	}
	return false
}

// Hierarchy levels. Level 0 is the unique root; levels grow toward leaf
// documents. Level 5 is reserved for documents attached directly to the
// root rather than to a person or category.
const (
	LevelRoot        = 0
	LevelPerson      = 1
	LevelCategory    = 2
	LevelSubcategory = 3
	LevelDocument    = 4
	LevelRootDoc     = 5

	// MaxLevel is the deepest valid level.
	MaxLevel = LevelRootDoc
)

// Point is a 2D canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single entity in the hierarchy graph.
type Node struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Level int    `json:"level"`

	// Pos is the last resolved canvas position, nil before the first
	// layout. The engine seeds from it when present.
	Pos *Point `json:"pos,omitempty"`

	// Fixed is set when the user pinned the node by dragging it. A pinned
	// node is excluded from forces but stays a collision obstacle.
	Fixed *Point `json:"fixed,omitempty"`

	// ParentIDs is the ordered set of hierarchy parents. Empty only for
	// the root.
	ParentIDs []string `json:"parent_ids,omitempty"`

	ChildCount int  `json:"child_count,omitempty"`
	Expanded   bool `json:"expanded,omitempty"`

	Title string `json:"title,omitempty"`
}

// Edge is a directed hierarchy or cross-reference relationship.
type Edge struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// Pinned reports whether the node has a manual position override.
func (n Node) Pinned() bool {
	return n.Fixed != nil
}

// Pin records a manual position override at p.
func (n *Node) Pin(p Point) {
	fixed := p
	n.Fixed = &fixed
	n.Pos = &Point{X: p.X, Y: p.Y}
}

// Unpin clears the manual position override, keeping the last position.
func (n *Node) Unpin() {
	n.Fixed = nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Pos != nil {
		p := *n.Pos
		out.Pos = &p
	}
	if n.Fixed != nil {
		f := *n.Fixed
		out.Fixed = &f
	}
	if n.ParentIDs != nil {
		out.ParentIDs = append([]string(nil), n.ParentIDs...)
	}
	return out
}

// Validate checks structural invariants on a single node. Cross-node
// invariants (dangling parents, duplicate root) are the graphdata
// integrity pass's job.
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node has empty id")
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
	}
	if n.Level < LevelRoot || n.Level > MaxLevel {
		return fmt.Errorf("node %s: level %d out of range [0,%d]", n.ID, n.Level, MaxLevel)
	}
	if n.Level == LevelRoot && len(n.ParentIDs) > 0 {
		return fmt.Errorf("node %s: root node must not have parents", n.ID)
	}
	if n.Level != LevelRoot && len(n.ParentIDs) == 0 {
		return fmt.Errorf("node %s: non-root node needs at least one parent", n.ID)
	}
	return nil
}

// Validate checks an edge references non-empty endpoints.
func (e Edge) Validate() error {
	if e.SourceID == "" || e.TargetID == "" {
		return fmt.Errorf("edge %s: empty endpoint", e.ID)
	}
	if e.SourceID == e.TargetID {
		return fmt.Errorf("edge %s: self loop on %s", e.ID, e.SourceID)
	}
	return nil
}

// SortNodes orders nodes by (level, id) for deterministic iteration.
func SortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Level != nodes[j].Level {
			return nodes[i].Level < nodes[j].Level
		}
		return nodes[i].ID < nodes[j].ID
	})
}
