package testutil

import (
	"math"
	"testing"

	"github.com/canopyviz/canopy/pkg/model"
)

// AssertAllPositioned verifies every node carries a resolved position.
func AssertAllPositioned(t *testing.T, nodes []model.Node) {
	t.Helper()
	for _, n := range nodes {
		if n.Pos == nil {
			t.Errorf("node %s has no position", n.ID)
			continue
		}
		if math.IsNaN(n.Pos.X) || math.IsNaN(n.Pos.Y) ||
			math.IsInf(n.Pos.X, 0) || math.IsInf(n.Pos.Y, 0) {
			t.Errorf("node %s has non-finite position %+v", n.ID, *n.Pos)
		}
	}
}

// MaxOverlap returns the worst pairwise padded-AABB overlap depth across
// the node set, zero when nothing overlaps.
func MaxOverlap(nodes []model.Node, padding float64) float64 {
	worst := 0.0
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			if a.Pos == nil || b.Pos == nil {
				continue
			}
			fa := model.NodeFootprint(a.Level, a.Kind)
			fb := model.NodeFootprint(b.Level, b.Kind)
			haw, hah := fa.Half()
			hbw, hbh := fb.Half()
			ox := haw + hbw + padding - math.Abs(b.Pos.X-a.Pos.X)
			oy := hah + hbh + padding - math.Abs(b.Pos.Y-a.Pos.Y)
			if ox > 0 && oy > 0 {
				worst = math.Max(worst, math.Min(ox, oy))
			}
		}
	}
	return worst
}

// AssertNoOverlap fails when any pair of padded footprints overlaps by
// more than eps.
func AssertNoOverlap(t *testing.T, nodes []model.Node, padding, eps float64) {
	t.Helper()
	if worst := MaxOverlap(nodes, padding); worst > eps {
		t.Errorf("worst footprint overlap %.2f exceeds epsilon %.2f", worst, eps)
	}
}

// AssertSameMembers fails unless got contains exactly the want ids.
func AssertSameMembers(t *testing.T, got map[string]struct{}, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got %d members, want %d (%v)", len(got), len(want), want)
	}
	for _, id := range want {
		if _, ok := got[id]; !ok {
			t.Errorf("missing member %q", id)
		}
	}
}
