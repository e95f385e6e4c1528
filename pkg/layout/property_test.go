package layout

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/canopyviz/canopy/pkg/model"
	"github.com/canopyviz/canopy/pkg/testutil"
)

func randomFixture(t *rapid.T) ([]model.Node, []model.Edge) {
	cfg := testutil.GeneratorConfig{
		People:        rapid.IntRange(1, 5).Draw(t, "people"),
		Categories:    rapid.IntRange(0, 3).Draw(t, "categories"),
		Subcategories: rapid.IntRange(0, 2).Draw(t, "subcategories"),
		Documents:     rapid.IntRange(0, 2).Draw(t, "documents"),
		RootDocs:      rapid.IntRange(0, 2).Draw(t, "rootdocs"),
		Seed:          rapid.Int64Range(1, 1<<20).Draw(t, "seed"),
	}
	return testutil.Generate(cfg)
}

// Positions stay finite through the whole run regardless of graph shape
// or tuning, including aggressive option values that get clamped.
func TestPositionsAlwaysFinite(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes, edges := randomFixture(t)
		opts := DefaultOptions()
		opts.NodeRepulsionStrength = rapid.Float64Range(-2000, 2000).Draw(t, "repulsion")
		opts.LinkDistance = rapid.Float64Range(0, 400).Draw(t, "linkdist")
		opts.MaxIterations = rapid.IntRange(1, 60).Draw(t, "iters")
		opts.Seed = rapid.Int64Range(0, 1<<20).Draw(t, "layoutseed")

		res := Calculate(context.Background(), nodes, edges, opts)
		for _, n := range res.Nodes {
			if n.Pos == nil || !finite(n.Pos.X) || !finite(n.Pos.Y) {
				t.Fatalf("node %s ended non-finite: %+v", n.ID, n.Pos)
			}
		}
	})
}

// A full-length run with default physics leaves no two raw footprints
// overlapping, whatever the hierarchy shape.
func TestConvergedRunsSeparateFootprints(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes, edges := randomFixture(t)
		opts := DefaultOptions()
		opts.MaxIterations = 600
		opts.Seed = rapid.Int64Range(1, 1<<20).Draw(t, "layoutseed")

		res := Calculate(context.Background(), nodes, edges, opts)
		if worst := testutil.MaxOverlap(res.Nodes, 0); worst > 0.5 {
			t.Fatalf("worst footprint overlap %.2f after full run", worst)
		}
	})
}

// Pinned nodes never move, whatever the rest of the simulation does.
func TestPinsHoldUnderAnyGraph(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes, edges := randomFixture(t)
		pinIdx := rapid.IntRange(0, len(nodes)-1).Draw(t, "pin")
		px := rapid.Float64Range(-500, 500).Draw(t, "px")
		py := rapid.Float64Range(-500, 500).Draw(t, "py")
		nodes[pinIdx].Fixed = &model.Point{X: px, Y: py}

		res := Calculate(context.Background(), nodes, edges, DefaultOptions())
		for _, n := range res.Nodes {
			if n.ID != nodes[pinIdx].ID {
				continue
			}
			if n.Pos.X != px || n.Pos.Y != py {
				t.Fatalf("pinned node drifted to (%v, %v), pinned at (%v, %v)",
					n.Pos.X, n.Pos.Y, px, py)
			}
		}
	})
}
