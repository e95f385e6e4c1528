// Package ui is the interactive terminal front end: a character canvas
// showing the visible slice of the hierarchy, driven by the layout engine's
// frame stream so expand/collapse transitions animate instead of jumping.
package ui

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/canopyviz/canopy/pkg/graphdata"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/model"
	"github.com/canopyviz/canopy/pkg/visibility"
)

// SaveFunc persists the current node set (positions and pins included).
type SaveFunc func([]model.Node) error

// Options configures the TUI.
type Options struct {
	Title   string
	Animate bool // stream intermediate frames instead of jumping to the result
	Layout  layout.Options
	Save    SaveFunc // nil disables the save key
}

type frameMsg struct {
	eng   *layout.Engine
	frame layout.Frame
}

type layoutDoneMsg struct {
	eng *layout.Engine
	res layout.Result
}

type savedMsg struct{ err error }

// ReloadMsg swaps in a freshly loaded snapshot, e.g. after the data file
// changed on disk. Expansion state and pins carry over for nodes that
// survive the reload.
type ReloadMsg struct {
	Nodes []model.Node
	Edges []model.Edge
}

// Model is the bubbletea model. Construct with New, run with tea.Program.
type Model struct {
	idx    *graphdata.Index
	vis    *visibility.State
	opts   Options
	keys   keyMap
	help   help.Model
	runner *layout.Runner

	// positions persists node state across layout runs, keyed by id.
	positions map[string]model.Node

	visible  []model.Node // current visible slice, positioned
	visEdges []model.Edge
	order    []string // selection cycle, sorted
	selected int

	frames <-chan layout.Frame

	width, height int
	settling      bool
	status        string
}

// New builds the TUI model over an indexed hierarchy.
func New(idx *graphdata.Index, opts Options) *Model {
	m := &Model{
		idx:       idx,
		vis:       visibility.NewState(idx),
		opts:      opts,
		keys:      defaultKeyMap(),
		help:      help.New(),
		runner:    &layout.Runner{},
		positions: make(map[string]model.Node, len(idx.Nodes())),
		width:     80,
		height:    24,
	}
	for _, n := range idx.Nodes() {
		m.positions[n.ID] = n.Clone()
	}
	m.refreshVisible()
	return m
}

// Expand opens the given nodes, typically to restore persisted expansion
// state before the program starts.
func (m *Model) Expand(ids ...string) {
	m.vis.Expand(ids...)
	m.refreshVisible()
}

// ExpandedIDs returns the current expansion set for persistence.
func (m *Model) ExpandedIDs() []string {
	return m.vis.Expanded().IDs()
}

// Nodes returns the full node set with the latest positions, for
// persistence after the program exits.
func (m *Model) Nodes() []model.Node {
	out := make([]model.Node, 0, len(m.positions))
	for _, id := range m.allIDs() {
		out = append(out, m.positions[id].Clone())
	}
	return out
}

func (m *Model) allIDs() []string {
	ids := make([]string, 0, len(m.positions))
	for id := range m.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// refreshVisible recomputes the visible slice from the expansion state,
// carrying positions over from previous runs.
func (m *Model) refreshVisible() {
	visSet := m.vis.Resolve()
	m.visible = m.visible[:0]
	m.order = m.order[:0]
	for _, id := range m.allIDs() {
		if _, ok := visSet[id]; !ok {
			continue
		}
		m.visible = append(m.visible, m.positions[id].Clone())
		m.order = append(m.order, id)
	}

	all := m.idx.Edges()
	m.visEdges = visibility.VisibleEdges(all, visSet)

	if m.selected >= len(m.order) {
		m.selected = 0
	}
}

func (m *Model) selectedID() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[m.selected]
}

// startLayout begins a new run over the current visible slice, superseding
// any run in flight.
func (m *Model) startLayout() tea.Cmd {
	eng := m.runner.Begin(layout.NewEngine(m.visible, m.visEdges, m.opts.Layout))
	m.settling = true

	if !m.opts.Animate {
		return func() tea.Msg {
			return layoutDoneMsg{eng: eng, res: eng.Run(context.Background())}
		}
	}

	ch := make(chan layout.Frame, 16)
	go func() {
		defer close(ch)
		for f := range eng.Frames() {
			ch <- f
		}
	}()
	m.frames = ch
	return waitFrame(eng, ch)
}

func waitFrame(eng *layout.Engine, ch <-chan layout.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return frameMsg{eng: eng, frame: f}
	}
}

func (m *Model) Init() tea.Cmd {
	return m.startLayout()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case frameMsg:
		if !m.runner.Active(msg.eng) {
			return m, nil // superseded run, drop its frames
		}
		m.applyPositions(msg.frame.Nodes)
		if msg.frame.Final {
			m.settling = false
			return m, nil
		}
		return m, waitFrame(msg.eng, m.frames)

	case layoutDoneMsg:
		if !m.runner.Active(msg.eng) {
			return m, nil
		}
		m.applyPositions(msg.res.Nodes)
		m.settling = false
		return m, nil

	case ReloadMsg:
		idx := graphdata.Build(msg.Nodes, msg.Edges)
		old := m.positions
		m.idx = idx
		m.vis.SetIndex(idx)
		m.positions = make(map[string]model.Node, len(idx.Nodes()))
		for _, n := range idx.Nodes() {
			fresh := n.Clone()
			if prev, ok := old[n.ID]; ok {
				if fresh.Pos == nil {
					fresh.Pos = prev.Pos
				}
				if fresh.Fixed == nil {
					fresh.Fixed = prev.Fixed
				}
			}
			m.positions[n.ID] = fresh
		}
		m.refreshVisible()
		m.status = "data reloaded"
		return m, m.startLayout()

	case savedMsg:
		if msg.err != nil {
			m.status = warnStyle.Render(fmt.Sprintf("save failed: %v", msg.err))
		} else {
			m.status = "positions saved"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.runner.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if len(m.order) > 0 {
			m.selected = (m.selected + 1) % len(m.order)
		}
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if len(m.order) > 0 {
			m.selected = (m.selected - 1 + len(m.order)) % len(m.order)
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		m.vis.Toggle(id)
		m.refreshVisible()
		return m, m.startLayout()

	case key.Matches(msg, m.keys.Pin):
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		n := m.positions[id]
		if n.Pos != nil {
			n.Pin(*n.Pos)
			m.positions[id] = n
			m.status = fmt.Sprintf("pinned %s", id)
		}
		return m, nil

	case key.Matches(msg, m.keys.Unpin):
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		n := m.positions[id]
		n.Unpin()
		m.positions[id] = n
		m.status = fmt.Sprintf("unpinned %s", id)
		return m, nil

	case key.Matches(msg, m.keys.Relayout):
		m.refreshVisible()
		return m, m.startLayout()

	case key.Matches(msg, m.keys.ResetAll):
		for id, n := range m.positions {
			n.Unpin()
			m.positions[id] = n
		}
		m.refreshVisible()
		m.status = "pins cleared"
		return m, m.startLayout()

	case key.Matches(msg, m.keys.Save):
		if m.opts.Save == nil {
			return m, nil
		}
		nodes := m.Nodes()
		save := m.opts.Save
		return m, func() tea.Msg { return savedMsg{err: save(nodes)} }
	}
	return m, nil
}

// applyPositions folds engine output back into the position store and the
// visible slice.
func (m *Model) applyPositions(nodes []model.Node) {
	for _, n := range nodes {
		stored, ok := m.positions[n.ID]
		if !ok {
			continue
		}
		stored.Pos = n.Pos
		m.positions[n.ID] = stored
	}
	for i := range m.visible {
		if stored, ok := m.positions[m.visible[i].ID]; ok {
			m.visible[i].Pos = stored.Pos
		}
	}
}

func (m *Model) View() string {
	title := m.opts.Title
	if title == "" {
		title = "canopy"
	}

	header := titleStyle.Render(title)
	status := m.statusLine()
	helpView := m.help.View(m.keys)

	chrome := lipgloss.Height(header) + lipgloss.Height(status) + lipgloss.Height(helpView)
	canvasH := m.height - chrome
	if canvasH < 3 {
		canvasH = 3
	}
	canvas := renderCanvas(m.visible, m.selectedID(), m.width, canvasH)

	return lipgloss.JoinVertical(lipgloss.Left, header, canvas, status, helpView)
}

func (m *Model) statusLine() string {
	state := "settled"
	if m.settling {
		state = "settling"
	}
	line := fmt.Sprintf("%d/%d nodes visible | %s | %s",
		len(m.visible), len(m.positions), state, m.selectedID())
	if m.status != "" {
		line += " | " + m.status
	}
	return statusStyle.Render(line)
}
