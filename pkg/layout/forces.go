package layout

import "math"

// applyCharge adds Barnes-Hut approximated inverse-square repulsion to the
// free nodes' velocities. Pinned nodes contribute mass to the tree (they
// still push others away) but receive nothing themselves.
func (e *Engine) applyCharge(qt *quadtree) {
	if qt == nil {
		return
	}
	k := e.opts.NodeRepulsionStrength * e.alpha
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.pinned {
			continue
		}
		fx, fy := qt.forceOn(i, n.x, n.y, theta, k, maxChargeDistance, minChargeDistance)
		n.vx += fx
		n.vy += fy
	}
}

// applyLinks pulls edge endpoints toward the configured rest length.
// Corrections split between the endpoints; a pinned endpoint transfers its
// share to the free one.
func (e *Engine) applyLinks() {
	for _, ed := range e.edges {
		a := &e.nodes[ed.src]
		b := &e.nodes[ed.dst]
		if a.pinned && b.pinned {
			continue
		}

		dx := b.x - a.x
		dy := b.y - a.y
		dist := math.Hypot(dx, dy)
		if dist < minDistance {
			dist = minDistance
			dx = minDistance
		}

		// Positive when the link is stretched past its rest length.
		f := (dist - e.opts.LinkDistance) / dist * e.opts.LinkStrength * e.alpha
		fx := dx * f
		fy := dy * f

		switch {
		case a.pinned:
			b.vx -= fx
			b.vy -= fy
		case b.pinned:
			a.vx += fx
			a.vy += fy
		default:
			a.vx += fx / 2
			a.vy += fy / 2
			b.vx -= fx / 2
			b.vy -= fy / 2
		}
	}
}

// applyLevels is the soft band constraint: a restoring pull toward the
// level's target Y. Soft so collisions and links can still perturb nodes
// off the exact band.
func (e *Engine) applyLevels() {
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.pinned {
			continue
		}
		n.vy += (e.targetY(n.level) - n.y) * e.alpha * levelDamping
	}
}

// applyCenter keeps the cloud from drifting horizontally off canvas.
func (e *Engine) applyCenter() {
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.pinned {
			continue
		}
		n.vx += (e.opts.CenterX - n.x) * e.alpha * centerStrength
	}
}
