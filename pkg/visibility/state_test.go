package visibility

import (
	"testing"

	"github.com/canopyviz/canopy/pkg/graphdata"
	"github.com/canopyviz/canopy/pkg/model"
	"github.com/canopyviz/canopy/pkg/testutil"
)

func TestCollapseCascadesOverDescendants(t *testing.T) {
	nodes, edges := testutil.Generate(testutil.DefaultGeneratorConfig())
	idx := graphdata.Build(nodes, edges)

	st := NewState(idx)
	st.Expand("person-0-cat-0", "person-0-cat-0-sub-0", "person-1-cat-0")

	st.Collapse("person-0-cat-0")

	if st.IsExpanded("person-0-cat-0") {
		t.Error("collapsed node still expanded")
	}
	if st.IsExpanded("person-0-cat-0-sub-0") {
		t.Error("descendant survived the cascade")
	}
	// Siblings and other branches are untouched.
	if !st.IsExpanded("person-1-cat-0") {
		t.Error("cascade reached an unrelated branch")
	}
}

func TestCascadeIgnoresCrossReferences(t *testing.T) {
	nodes := []model.Node{
		{ID: "root", Kind: model.KindRoot, Level: model.LevelRoot},
		{ID: "A", Kind: model.KindPerson, Level: model.LevelPerson, ParentIDs: []string{"root"}},
		{ID: "B", Kind: model.KindPerson, Level: model.LevelPerson, ParentIDs: []string{"root"}},
		{ID: "bcat", Kind: model.KindCategory, Level: model.LevelCategory, ParentIDs: []string{"B"}},
	}
	edges := []model.Edge{{ID: "x1", SourceID: "A", TargetID: "bcat"}}
	idx := graphdata.Build(nodes, edges)

	st := NewState(idx)
	st.Expand("A", "bcat")
	st.Collapse("A")

	if !st.IsExpanded("bcat") {
		t.Error("collapse followed a cross-reference edge")
	}
}

func TestToggleFlips(t *testing.T) {
	idx := graphdata.Build([]model.Node{
		{ID: "root", Kind: model.KindRoot, Level: model.LevelRoot},
		{ID: "A", Kind: model.KindPerson, Level: model.LevelPerson, ParentIDs: []string{"root"}},
	}, nil)
	st := NewState(idx)

	st.Toggle("A")
	if !st.IsExpanded("A") {
		t.Error("first toggle should expand")
	}
	st.Toggle("A")
	if st.IsExpanded("A") {
		t.Error("second toggle should collapse")
	}
}

func TestExpandIgnoresUnknownIDs(t *testing.T) {
	idx := graphdata.Build([]model.Node{
		{ID: "root", Kind: model.KindRoot, Level: model.LevelRoot},
	}, nil)
	st := NewState(idx)
	st.Expand("nope")
	if len(st.Expanded()) != 0 {
		t.Errorf("unknown id accepted: %v", st.Expanded().IDs())
	}
}

func TestSetIndexDropsStaleIDs(t *testing.T) {
	nodes, edges := testutil.Generate(testutil.DefaultGeneratorConfig())
	idx := graphdata.Build(nodes, edges)
	st := NewState(idx)
	st.Expand("person-0-cat-0")

	smaller := graphdata.Build([]model.Node{
		{ID: "root", Kind: model.KindRoot, Level: model.LevelRoot},
	}, nil)
	st.SetIndex(smaller)

	if st.IsExpanded("person-0-cat-0") {
		t.Error("id from the old index survived SetIndex")
	}
}

func TestResetClears(t *testing.T) {
	nodes, edges := testutil.Generate(testutil.DefaultGeneratorConfig())
	st := NewState(graphdata.Build(nodes, edges))
	st.Expand("person-0-cat-0", "person-1-cat-1")
	st.Reset()
	if len(st.Expanded()) != 0 {
		t.Errorf("Reset left %v", st.Expanded().IDs())
	}
}

func TestExpandedReturnsCopy(t *testing.T) {
	nodes, edges := testutil.Generate(testutil.DefaultGeneratorConfig())
	st := NewState(graphdata.Build(nodes, edges))
	st.Expand("person-0-cat-0")

	snap := st.Expanded()
	delete(snap, "person-0-cat-0")
	if !st.IsExpanded("person-0-cat-0") {
		t.Error("Expanded returned internal map")
	}
}
