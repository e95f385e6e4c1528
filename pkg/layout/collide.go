package layout

import (
	"math"

	"github.com/canopyviz/canopy/pkg/metrics"
)

// collide resolves padded AABB overlaps between node footprints. For each
// node the quadtree is queried over its padded box inflated by the largest
// half extent in the set, so every potentially overlapping partner's
// center falls inside the region. Each pair resolves once (i < j) along
// the axis with the smaller overlap, which minimizes total displacement.
//
// Pinned nodes are immovable obstacles: their half of the correction
// transfers to the free partner.
func (e *Engine) collide(qt *quadtree) {
	if qt == nil || len(e.nodes) < 2 {
		return
	}
	defer metrics.Timer(metrics.CollisionPass)()

	// Half of each axis correction goes to each side, scaled by alpha so
	// late-run corrections settle instead of oscillating. A floor keeps
	// residual overlaps shrinking even once alpha is nearly spent.
	strength := 0.7 * math.Min(1, math.Max(0.25, e.alpha*4))

	for i := range e.nodes {
		a := &e.nodes[i]
		minX := a.x - a.hw - e.maxHalfW
		maxX := a.x + a.hw + e.maxHalfW
		minY := a.y - a.hh - e.maxHalfH
		maxY := a.y + a.hh + e.maxHalfH

		qt.visitRegion(minX, minY, maxX, maxY, func(j int) {
			if j <= i {
				return
			}
			b := &e.nodes[j]
			if a.pinned && b.pinned {
				return
			}

			dx := b.x - a.x
			dy := b.y - a.y
			overlapX := a.hw + b.hw - math.Abs(dx)
			overlapY := a.hh + b.hh - math.Abs(dy)
			if overlapX <= 0 || overlapY <= 0 {
				return
			}

			var ix, iy float64 // impulse applied to b; a gets the negation
			if overlapX < overlapY {
				ix = overlapX * strength * sign(dx)
				if dx == 0 {
					// Coincident on x: deterministic tie-break by id
					// ordering so perfectly stacked nodes always part.
					ix = overlapX * strength * tieBreak(a.id, b.id)
				}
			} else {
				iy = overlapY * strength * sign(dy)
				if dy == 0 {
					iy = overlapY * strength * tieBreak(a.id, b.id)
				}
			}

			switch {
			case a.pinned:
				b.vx += ix
				b.vy += iy
			case b.pinned:
				a.vx -= ix
				a.vy -= iy
			default:
				a.vx -= ix / 2
				a.vy -= iy / 2
				b.vx += ix / 2
				b.vy += iy / 2
			}
		})
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// tieBreak picks the push direction for b when centers coincide on the
// resolution axis: the lexicographically larger id moves positive.
func tieBreak(aID, bID string) float64 {
	if bID > aID {
		return 1
	}
	return -1
}
