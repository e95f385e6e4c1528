// Package graphdata builds a queryable index over a node/edge snapshot and
// runs the data-integrity pass. Structural problems (dangling references,
// level inversions, cycles) degrade to warnings: the visualization should
// render partial data, not crash on it.
package graphdata

import (
	"fmt"
	"sort"

	"github.com/canopyviz/canopy/pkg/metrics"
	"github.com/canopyviz/canopy/pkg/model"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Warning is a non-fatal data-integrity finding.
type Warning struct {
	NodeID string
	Msg    string
}

func (w Warning) String() string {
	if w.NodeID == "" {
		return w.Msg
	}
	return fmt.Sprintf("%s: %s", w.NodeID, w.Msg)
}

// Index is an immutable view over a snapshot: id lookup, parent/child
// adjacency and a gonum digraph for traversal queries. Build once per
// snapshot, share freely (read-only after construction).
type Index struct {
	nodes    []model.Node
	byID     map[string]int
	children map[string][]string

	// hier carries parent→child edges only; combined adds the cross
	// reference edge list on top. Collapse cascades walk hier, the cycle
	// check runs over combined.
	hier     *simple.DirectedGraph
	combined *simple.DirectedGraph
	gid      map[string]int64
	gnames   map[int64]string

	root     *model.Node
	edges    []model.Edge
	warnings []Warning
}

// Build constructs the index and runs the integrity pass. Edges and
// parent references to missing nodes are dropped from the adjacency and
// reported; the input slices are not modified.
func Build(nodes []model.Node, edges []model.Edge) *Index {
	defer metrics.Timer(metrics.IndexBuild)()
	idx := &Index{
		nodes:    nodes,
		byID:     make(map[string]int, len(nodes)),
		children: make(map[string][]string),
		hier:     simple.NewDirectedGraph(),
		combined: simple.NewDirectedGraph(),
		gid:      make(map[string]int64, len(nodes)),
		gnames:   make(map[int64]string, len(nodes)),
	}

	for i, n := range nodes {
		if _, dup := idx.byID[n.ID]; dup {
			idx.warn(n.ID, "duplicate node id, keeping first occurrence")
			continue
		}
		idx.byID[n.ID] = i
		gid := int64(len(idx.gid))
		idx.gid[n.ID] = gid
		idx.gnames[gid] = n.ID
		idx.hier.AddNode(simple.Node(gid))
		idx.combined.AddNode(simple.Node(gid))
	}

	// Hierarchy adjacency comes from ParentIDs; the edge list may add
	// cross references but hierarchy is authoritative for disclosure.
	// Duplicate occurrences were dropped above and must not contribute
	// adjacency or repeat their warnings here.
	for i, n := range nodes {
		if idx.byID[n.ID] != i {
			continue
		}
		if err := n.Validate(); err != nil {
			idx.warn(n.ID, err.Error())
		}
		if n.Level == model.LevelRoot {
			if idx.root != nil {
				idx.warn(n.ID, "multiple root nodes, keeping "+idx.root.ID)
			} else {
				r := n
				idx.root = &r
			}
		}
		for _, pid := range n.ParentIDs {
			pi, ok := idx.byID[pid]
			if !ok {
				idx.warn(n.ID, fmt.Sprintf("parent %q does not exist", pid))
				continue
			}
			parent := nodes[pi]
			if parent.Level > n.Level {
				idx.warn(n.ID, fmt.Sprintf("level %d below parent %s level %d", n.Level, pid, parent.Level))
			}
			idx.children[pid] = append(idx.children[pid], n.ID)
			idx.setEdge(idx.hier, pid, n.ID)
			idx.setEdge(idx.combined, pid, n.ID)
		}
	}

	for _, e := range edges {
		if err := e.Validate(); err != nil {
			idx.warn("", err.Error())
			continue
		}
		_, okS := idx.byID[e.SourceID]
		_, okT := idx.byID[e.TargetID]
		if !okS || !okT {
			idx.warn("", fmt.Sprintf("edge %s references missing node (%s -> %s)", e.ID, e.SourceID, e.TargetID))
			continue
		}
		idx.setEdge(idx.combined, e.SourceID, e.TargetID)
		idx.edges = append(idx.edges, e)
	}

	if idx.root == nil && len(nodes) > 0 {
		idx.warn("", "no root node in snapshot")
	}

	if _, err := topo.Sort(idx.combined); err != nil {
		idx.warn("", "graph contains a cycle: "+err.Error())
	}

	for id := range idx.children {
		sort.Strings(idx.children[id])
	}

	return idx
}

func (x *Index) setEdge(g *simple.DirectedGraph, from, to string) {
	f, t := x.gid[from], x.gid[to]
	if f == t {
		return
	}
	g.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
}

func (x *Index) warn(id, msg string) {
	x.warnings = append(x.warnings, Warning{NodeID: id, Msg: msg})
}

// Nodes returns the indexed nodes in input order.
func (x *Index) Nodes() []model.Node { return x.nodes }

// Node looks up a node by id.
func (x *Index) Node(id string) (model.Node, bool) {
	i, ok := x.byID[id]
	if !ok {
		return model.Node{}, false
	}
	return x.nodes[i], true
}

// Root returns the unique level-0 node, or nil when the snapshot has none.
func (x *Index) Root() *model.Node { return x.root }

// Children returns the direct children of id, sorted.
func (x *Index) Children(id string) []string { return x.children[id] }

// Edges returns the edge list that survived the integrity pass.
func (x *Index) Edges() []model.Edge { return x.edges }

// Warnings returns the integrity findings from Build.
func (x *Index) Warnings() []Warning { return x.warnings }

// Descendants returns every node id transitively reachable from id along
// the hierarchy (parent→child) edges, excluding id itself, sorted. Cross
// reference edges do not count: collapsing a node must not cascade into
// unrelated branches it merely links to.
func (x *Index) Descendants(id string) []string {
	start, ok := x.gid[id]
	if !ok {
		return nil
	}
	var out []string
	bfs := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != start {
				out = append(out, x.gnames[n.ID()])
			}
		},
	}
	bfs.Walk(x.hier, simple.Node(start), nil)
	sort.Strings(out)
	return out
}
