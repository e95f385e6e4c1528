package layout

import "math"

// quadtree is a point quadtree over simulation node centers, rebuilt every
// tick. It serves two queries: Barnes-Hut center-of-mass approximation for
// the charge force, and rectangular region visits for collision candidate
// pruning.
type quadtree struct {
	x, y, size float64 // square bounds

	// center of mass over all bodies in this subtree
	comX, comY, mass float64

	body   int   // index of the resident body when a leaf, -1 when empty
	bucket []int // further bodies aggregated once the cell hit minCellSize
	isLeaf bool

	nw, ne, sw, se *quadtree
}

func newQuadtree(x, y, size float64) *quadtree {
	return &quadtree{x: x, y: y, size: size, body: -1, isLeaf: true}
}

// buildQuadtree constructs the tree over the given positions. Returns nil
// for an empty input.
func buildQuadtree(xs, ys []float64) *quadtree {
	if len(xs) == 0 {
		return nil
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < len(xs); i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}

	// Square bounds with slack so boundary points insert cleanly.
	size := math.Max(maxX-minX, maxY-minY)
	pad := size*0.1 + 1
	root := newQuadtree(minX-pad, minY-pad, size+2*pad)

	for i := range xs {
		root.insert(i, xs[i], ys[i], 1)
	}
	return root
}

// minCellSize stops subdivision once a cell is too small to separate its
// occupants; coincident points aggregate into the resident leaf instead.
const minCellSize = 1e-6

func (q *quadtree) insert(i int, px, py, m float64) {
	if q.isLeaf && q.body == -1 {
		q.body = i
		q.comX, q.comY, q.mass = px, py, m
		return
	}

	if q.isLeaf {
		if q.size < minCellSize {
			q.bucket = append(q.bucket, i)
			total := q.mass + m
			q.comX = (q.comX*q.mass + px*m) / total
			q.comY = (q.comY*q.mass + py*m) / total
			q.mass = total
			return
		}
		// Split: push the resident body down before descending.
		old, oldX, oldY, oldM := q.body, q.comX, q.comY, q.mass
		q.isLeaf = false
		q.body = -1
		half := q.size / 2
		q.nw = newQuadtree(q.x, q.y, half)
		q.ne = newQuadtree(q.x+half, q.y, half)
		q.sw = newQuadtree(q.x, q.y+half, half)
		q.se = newQuadtree(q.x+half, q.y+half, half)
		q.quadrant(oldX, oldY).insert(old, oldX, oldY, oldM)
	}

	total := q.mass + m
	q.comX = (q.comX*q.mass + px*m) / total
	q.comY = (q.comY*q.mass + py*m) / total
	q.mass = total

	q.quadrant(px, py).insert(i, px, py, m)
}

// contains reports whether leaf q holds body i, either as the resident or
// in the coincident bucket.
func (q *quadtree) contains(i int) bool {
	if q.body == i {
		return true
	}
	for _, b := range q.bucket {
		if b == i {
			return true
		}
	}
	return false
}

func (q *quadtree) quadrant(px, py float64) *quadtree {
	half := q.size / 2
	if px < q.x+half {
		if py < q.y+half {
			return q.nw
		}
		return q.sw
	}
	if py < q.y+half {
		return q.ne
	}
	return q.se
}

// forceOn accumulates the Barnes-Hut approximated repulsion on body i at
// (px, py). Subtrees whose extent over distance ratio is below theta are
// treated as a single body at their center of mass. Interactions beyond
// maxDist are dropped; distances below minDist are clamped to avoid the
// near-singularity.
func (q *quadtree) forceOn(i int, px, py, theta, strength, maxDist, minDist float64) (float64, float64) {
	if q == nil || q.mass == 0 {
		return 0, 0
	}
	if q.isLeaf && q.contains(i) {
		// The leaf holds body i, possibly with others stacked at the same
		// point. Repulsion between exactly coincident bodies has no
		// direction; the collision pass tie-breaks them apart instead.
		return 0, 0
	}

	dx := q.comX - px
	dy := q.comY - py
	dist := math.Hypot(dx, dy)

	if q.isLeaf || q.size/math.Max(dist, minDist) < theta {
		if dist > maxDist {
			return 0, 0
		}
		if dist < minDist {
			dist = minDist
			// Coincident bodies: deterministic nudge handled by the
			// collision pass; push along x here to stay finite.
			if dx == 0 && dy == 0 {
				dx = minDist
			}
		}
		f := strength * q.mass / (dist * dist)
		return -dx / dist * f, -dy / dist * f
	}

	fx1, fy1 := q.nw.forceOn(i, px, py, theta, strength, maxDist, minDist)
	fx2, fy2 := q.ne.forceOn(i, px, py, theta, strength, maxDist, minDist)
	fx3, fy3 := q.sw.forceOn(i, px, py, theta, strength, maxDist, minDist)
	fx4, fy4 := q.se.forceOn(i, px, py, theta, strength, maxDist, minDist)
	return fx1 + fx2 + fx3 + fx4, fy1 + fy2 + fy3 + fy4
}

// visitRegion calls fn for every body whose center lies inside the given
// rectangle. fn may be called with the querying body itself; callers skip
// it by index.
func (q *quadtree) visitRegion(minX, minY, maxX, maxY float64, fn func(i int)) {
	if q == nil || q.mass == 0 {
		return
	}
	if q.x > maxX || q.y > maxY || q.x+q.size < minX || q.y+q.size < minY {
		return
	}
	if q.isLeaf {
		if q.comX >= minX && q.comX <= maxX && q.comY >= minY && q.comY <= maxY {
			fn(q.body)
			for _, b := range q.bucket {
				fn(b)
			}
		}
		return
	}
	q.nw.visitRegion(minX, minY, maxX, maxY, fn)
	q.ne.visitRegion(minX, minY, maxX, maxY, fn)
	q.sw.visitRegion(minX, minY, maxX, maxY, fn)
	q.se.visitRegion(minX, minY, maxX, maxY, fn)
}
