// Package layout contains the physics-based position solver. An Engine is
// transient: built per recalculation request from a node/edge snapshot, run
// to convergence (or cancellation), then discarded. Final positions are
// returned as fresh nodes; the input snapshot is never mutated.
package layout

import (
	"context"
	"iter"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/canopyviz/canopy/pkg/debug"
	"github.com/canopyviz/canopy/pkg/metrics"
	"github.com/canopyviz/canopy/pkg/model"
)

// Options configures a single layout run. Zero values fall back to the
// documented defaults; out-of-range values are clamped, never rejected.
type Options struct {
	NodeRepulsionStrength float64 // magnitude of pairwise repulsion (stored positive)
	LinkDistance          float64 // rest length of edge springs
	LinkStrength          float64 // spring stiffness in (0,1]
	AlphaDecay            float64 // per-tick temperature decay in (0,1)
	VelocityDecay         float64 // per-tick velocity damping in (0,1)
	MaxIterations         int     // hard tick budget
	CenterX               float64
	CenterY               float64
	LevelSeparation       float64 // vertical distance between hierarchy bands
	CollisionPadding      float64 // spacing added around every footprint

	// PreserveManualPositions pins nodes carrying a Fixed position. When
	// false a full unconstrained re-layout ignores pins entirely.
	PreserveManualPositions bool

	// Seed makes the level-biased initial jitter reproducible. Zero means
	// a fixed default seed; layouts are deterministic either way.
	Seed int64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		NodeRepulsionStrength:   600,
		LinkDistance:            150,
		LinkStrength:            0.3,
		AlphaDecay:              0.02,
		VelocityDecay:           0.4,
		MaxIterations:           300,
		CenterX:                 0,
		CenterY:                 0,
		LevelSeparation:         150,
		CollisionPadding:        14,
		PreserveManualPositions: true,
	}
}

// clamped normalizes out-of-range values to sane bounds. Negative
// repulsion strengths are accepted (d3 convention) and folded into the
// positive magnitude used internally.
func (o Options) clamped() Options {
	def := DefaultOptions()
	if o.NodeRepulsionStrength == 0 {
		o.NodeRepulsionStrength = def.NodeRepulsionStrength
	}
	o.NodeRepulsionStrength = math.Abs(o.NodeRepulsionStrength)
	if o.LinkDistance <= 0 {
		o.LinkDistance = def.LinkDistance
	}
	if o.LinkStrength <= 0 || o.LinkStrength > 1 {
		o.LinkStrength = def.LinkStrength
	}
	if o.AlphaDecay <= 0 || o.AlphaDecay >= 1 {
		o.AlphaDecay = def.AlphaDecay
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay >= 1 {
		o.VelocityDecay = def.VelocityDecay
	}
	if o.MaxIterations < 1 {
		o.MaxIterations = def.MaxIterations
	}
	if o.LevelSeparation <= 0 {
		o.LevelSeparation = def.LevelSeparation
	}
	if o.CollisionPadding < 0 {
		o.CollisionPadding = def.CollisionPadding
	}
	return o
}

const (
	// alphaMin is the convergence threshold for the simulation temperature.
	alphaMin = 0.001

	// minDistance clamps near-zero separations in force math.
	minDistance = 1e-6

	// theta is the Barnes-Hut approximation accuracy parameter.
	theta = 0.9

	// maxChargeDistance bounds repulsion interactions for performance.
	maxChargeDistance = 800

	// minChargeDistance floors the inverse-square denominator so coincident
	// or near-coincident nodes get a strong finite shove, not an explosion.
	minChargeDistance = 10

	// levelDamping softens the band constraint so links and collisions can
	// still perturb nodes within their layer.
	levelDamping = 0.15

	// centerStrength is the mild horizontal pull toward CenterX.
	centerStrength = 0.02
)

// simNode is the engine-internal augmentation of a model node with live
// kinematic state. Owned exclusively by one Engine run.
type simNode struct {
	id     string
	level  int
	kind   model.Kind
	x, y   float64
	vx, vy float64

	pinned   bool
	fx, fy   float64 // pin target, valid when pinned
	hw, hh   float64 // padded half extents for collision
	seedable bool    // true when the position came from the jitter seed
}

type simEdge struct {
	src, dst int
}

// Frame is one intermediate (or final) state of a streaming layout run.
type Frame struct {
	Iteration int
	Alpha     float64
	Nodes     []model.Node
	Final     bool
}

// Engine advances a single relaxation run tick by tick. Not safe for
// concurrent use; the cooperative loop yields between ticks instead.
type Engine struct {
	nodes    []simNode
	edges    []simEdge
	byID     map[string]int
	src      []model.Node
	srcEdges []model.Edge
	opts     Options
	alpha    float64
	iter     int

	maxHalfW, maxHalfH float64

	stopped  atomic.Bool
	consumed bool
}

// NewEngine converts the snapshot into simulation state. The node and
// edge slices are copied up front: the engine's tick loop may run on a
// different goroutine than the caller, so a run must own its source
// snapshot outright rather than alias storage the caller keeps writing.
// Edges whose endpoints are missing from the node set are dropped here;
// the graphdata integrity pass is responsible for reporting them.
func NewEngine(nodes []model.Node, edges []model.Edge, opts Options) *Engine {
	opts = opts.clamped()
	src := make([]model.Node, len(nodes))
	for i, n := range nodes {
		src[i] = n.Clone()
	}
	srcEdges := make([]model.Edge, len(edges))
	copy(srcEdges, edges)

	e := &Engine{
		byID:     make(map[string]int, len(nodes)),
		src:      src,
		srcEdges: srcEdges,
		opts:     opts,
		alpha:    1,
	}

	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	e.nodes = make([]simNode, 0, len(nodes))
	for _, n := range nodes {
		fp := model.NodeFootprint(n.Level, n.Kind)
		hw, hh := fp.Half()
		sn := simNode{
			id:    n.ID,
			level: n.Level,
			kind:  n.Kind,
			hw:    hw + opts.CollisionPadding/2,
			hh:    hh + opts.CollisionPadding/2,
		}
		switch {
		case n.Fixed != nil && opts.PreserveManualPositions:
			sn.pinned = true
			sn.fx, sn.fy = n.Fixed.X, n.Fixed.Y
			sn.x, sn.y = n.Fixed.X, n.Fixed.Y
		case n.Pos != nil:
			sn.x, sn.y = n.Pos.X, n.Pos.Y
		default:
			sn.x, sn.y = e.seedPosition(n.Level, rng)
			sn.seedable = true
		}
		e.byID[n.ID] = len(e.nodes)
		e.nodes = append(e.nodes, sn)

		e.maxHalfW = math.Max(e.maxHalfW, sn.hw)
		e.maxHalfH = math.Max(e.maxHalfH, sn.hh)
	}

	for _, ed := range edges {
		si, ok1 := e.byID[ed.SourceID]
		di, ok2 := e.byID[ed.TargetID]
		if !ok1 || !ok2 || si == di {
			debug.LogIf(!ok1 || !ok2, "layout: dropping dangling edge %s (%s -> %s)", ed.ID, ed.SourceID, ed.TargetID)
			continue
		}
		e.edges = append(e.edges, simEdge{src: si, dst: di})
	}

	return e
}

// targetY is the vertical band center for a hierarchy level.
func (e *Engine) targetY(level int) float64 {
	mid := float64(model.MaxLevel) / 2
	return e.opts.CenterY + (float64(level)-mid)*e.opts.LevelSeparation
}

// seedPosition places an unpositioned node near its level band with
// horizontal jitter, so the relaxation starts close to the layered shape.
func (e *Engine) seedPosition(level int, rng *rand.Rand) (float64, float64) {
	spread := e.opts.LinkDistance * 2
	x := e.opts.CenterX + (rng.Float64()*2-1)*spread
	y := e.targetY(level) + (rng.Float64()*2-1)*e.opts.LevelSeparation*0.25
	return x, y
}

// Alpha returns the current simulation temperature.
func (e *Engine) Alpha() float64 { return e.alpha }

// Iterations returns the number of ticks run so far.
func (e *Engine) Iterations() int { return e.iter }

// Stop halts the run. Safe to call at any time, including before the
// first tick and from a different goroutine than the tick loop.
func (e *Engine) Stop() { e.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (e *Engine) Stopped() bool { return e.stopped.Load() }

// Tick advances the simulation one step. It returns false once the run is
// over: converged, budget exhausted, or stopped.
func (e *Engine) Tick() bool {
	if e.stopped.Load() || e.alpha < alphaMin || e.iter >= e.opts.MaxIterations {
		return false
	}
	defer metrics.Timer(metrics.LayoutTick)()
	e.iter++

	qt := e.buildTree()
	e.applyCharge(qt)
	e.applyLinks()
	e.applyLevels()
	e.applyCenter()
	e.collide(qt)
	e.integrate()

	e.alpha += (0 - e.alpha) * e.opts.AlphaDecay
	return e.alpha >= alphaMin && e.iter < e.opts.MaxIterations && !e.stopped.Load()
}

func (e *Engine) buildTree() *quadtree {
	defer metrics.Timer(metrics.QuadtreeBuild)()
	xs := make([]float64, len(e.nodes))
	ys := make([]float64, len(e.nodes))
	for i := range e.nodes {
		xs[i] = e.nodes[i].x
		ys[i] = e.nodes[i].y
	}
	return buildQuadtree(xs, ys)
}

// integrate applies velocity decay, advances positions and repairs any
// non-finite state by re-seeding from the level band.
func (e *Engine) integrate() {
	decay := 1 - e.opts.VelocityDecay
	rng := rand.New(rand.NewSource(int64(e.iter) * 7919))
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.pinned {
			n.x, n.y = n.fx, n.fy
			n.vx, n.vy = 0, 0
			continue
		}
		n.vx *= decay
		n.vy *= decay
		n.x += n.vx
		n.y += n.vy
		if !finite(n.x) || !finite(n.y) || !finite(n.vx) || !finite(n.vy) {
			debug.Log("layout: non-finite state on %s, re-seeding", n.id)
			n.x, n.y = e.seedPosition(n.level, rng)
			n.vx, n.vy = 0, 0
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Snapshot returns the current positions as fresh model nodes, cloned from
// the input snapshot with Pos updated.
func (e *Engine) Snapshot() []model.Node {
	out := make([]model.Node, len(e.src))
	for i, n := range e.src {
		out[i] = n.Clone()
		sn := e.nodes[e.byID[n.ID]]
		out[i].Pos = &model.Point{X: sn.x, Y: sn.y}
	}
	return out
}

// Result is the outcome of a completed (or cancelled) run.
type Result struct {
	Nodes      []model.Node
	Edges      []model.Edge
	Iterations int
	Alpha      float64
	Converged  bool // alpha dropped below the threshold (vs budget/stop)
}

// Run drives the engine to completion synchronously. The context cancels
// the run between ticks; a cancelled run still returns the best positions
// so far. Empty input returns an empty result, not an error.
func (e *Engine) Run(ctx context.Context) Result {
	if len(e.nodes) == 0 {
		return Result{}
	}
	defer metrics.Timer(metrics.LayoutRun)()
	for e.Tick() {
		select {
		case <-ctx.Done():
			e.Stop()
		default:
		}
	}
	return Result{
		Nodes:      e.Snapshot(),
		Edges:      e.srcEdges,
		Iterations: e.iter,
		Alpha:      e.alpha,
		Converged:  e.alpha < alphaMin,
	}
}

// Frames returns a lazy, finite sequence of intermediate frames, one per
// tick, ending with a Final frame. The sequence is one-shot: once consumed
// (or abandoned) it cannot be ranged again. Breaking out of the range, or
// calling Stop, terminates the run.
func (e *Engine) Frames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		if e.consumed {
			return
		}
		e.consumed = true
		if len(e.nodes) == 0 {
			yield(Frame{Final: true})
			return
		}
		for e.Tick() {
			if !yield(Frame{Iteration: e.iter, Alpha: e.alpha, Nodes: e.Snapshot()}) {
				e.Stop()
				return
			}
		}
		yield(Frame{Iteration: e.iter, Alpha: e.alpha, Nodes: e.Snapshot(), Final: true})
	}
}

// Calculate is the one-call convenience wrapper: build an engine, run it,
// return positioned nodes and the edges untouched.
func Calculate(ctx context.Context, nodes []model.Node, edges []model.Edge, opts Options) Result {
	if len(nodes) == 0 {
		return Result{}
	}
	return NewEngine(nodes, edges, opts).Run(ctx)
}

// ClearPins removes all manual position overrides, returning cloned nodes
// ready for a full unconstrained re-layout.
func ClearPins(nodes []model.Node) []model.Node {
	out := make([]model.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
		out[i].Fixed = nil
	}
	return out
}
