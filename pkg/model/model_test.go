package model

import "testing"

func TestValidateRejectsParentlessNonRoot(t *testing.T) {
	n := Node{ID: "doc-1", Kind: KindDocument, Level: LevelDocument}
	if err := n.Validate(); err == nil {
		t.Error("expected error for non-root node without parents")
	}
}

func TestValidateRejectsRootWithParents(t *testing.T) {
	n := Node{ID: "root", Kind: KindRoot, Level: LevelRoot, ParentIDs: []string{"x"}}
	if err := n.Validate(); err == nil {
		t.Error("expected error for root node with parents")
	}
}

func TestValidateAcceptsWellFormedNodes(t *testing.T) {
	nodes := []Node{
		{ID: "root", Kind: KindRoot, Level: LevelRoot},
		{ID: "alice", Kind: KindPerson, Level: LevelPerson, ParentIDs: []string{"root"}},
		{ID: "ins", Kind: KindCategory, Level: LevelCategory, ParentIDs: []string{"alice"}},
	}
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			t.Errorf("node %s: unexpected error: %v", n.ID, err)
		}
	}
}

func TestValidateLevelRange(t *testing.T) {
	n := Node{ID: "x", Kind: KindDocument, Level: 9, ParentIDs: []string{"root"}}
	if err := n.Validate(); err == nil {
		t.Error("expected error for level out of range")
	}
}

func TestEdgeValidate(t *testing.T) {
	if err := (Edge{ID: "e1", SourceID: "a", TargetID: "a"}).Validate(); err == nil {
		t.Error("expected error for self loop")
	}
	if err := (Edge{ID: "e2", SourceID: "a", TargetID: ""}).Validate(); err == nil {
		t.Error("expected error for empty endpoint")
	}
	if err := (Edge{ID: "e3", SourceID: "a", TargetID: "b"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNodeFootprintShrinksWithDepth(t *testing.T) {
	prev := NodeFootprint(LevelRoot, KindRoot)
	for lvl := LevelPerson; lvl <= LevelDocument; lvl++ {
		f := NodeFootprint(lvl, KindCategory)
		if f.W > prev.W || f.H > prev.H {
			t.Errorf("level %d footprint %+v larger than level %d %+v", lvl, f, lvl-1, prev)
		}
		prev = f
	}
}

func TestNodeFootprintClampsLevel(t *testing.T) {
	if got := NodeFootprint(-3, KindPerson); got != NodeFootprint(LevelRoot, KindPerson) {
		t.Errorf("negative level not clamped: %+v", got)
	}
	if got := NodeFootprint(42, KindDocument); got != NodeFootprint(MaxLevel, KindDocument) {
		t.Errorf("oversized level not clamped: %+v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	n := Node{
		ID:        "alice",
		Kind:      KindPerson,
		Level:     LevelPerson,
		Pos:       &Point{X: 1, Y: 2},
		ParentIDs: []string{"root"},
	}
	c := n.Clone()
	c.Pos.X = 99
	c.ParentIDs[0] = "other"
	if n.Pos.X != 1 {
		t.Error("Clone shares Pos with original")
	}
	if n.ParentIDs[0] != "root" {
		t.Error("Clone shares ParentIDs with original")
	}
}

func TestPinUnpin(t *testing.T) {
	n := Node{ID: "alice", Kind: KindPerson, Level: LevelPerson, ParentIDs: []string{"root"}}
	n.Pin(Point{X: 10, Y: 20})
	if !n.Pinned() {
		t.Fatal("expected node to be pinned")
	}
	if n.Pos == nil || n.Pos.X != 10 || n.Pos.Y != 20 {
		t.Errorf("Pin did not update Pos: %+v", n.Pos)
	}
	n.Unpin()
	if n.Pinned() {
		t.Error("expected node to be unpinned")
	}
	if n.Pos == nil {
		t.Error("Unpin should keep the last position")
	}
}
