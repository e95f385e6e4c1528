package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/canopyviz/canopy/pkg/graphdata"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/model"
	"github.com/canopyviz/canopy/pkg/testutil"
)

func newTestModel(t *testing.T, animate bool) *Model {
	t.Helper()
	nodes, edges := testutil.Generate(testutil.DefaultGeneratorConfig())
	idx := graphdata.Build(nodes, edges)
	opts := layout.DefaultOptions()
	opts.MaxIterations = 30
	opts.Seed = 7
	return New(idx, Options{Title: "test", Animate: animate, Layout: opts})
}

// drain runs the command pump until no command remains, feeding every
// message back through Update. Mirrors what tea.Program does.
func drain(t *testing.T, m *Model, cmd tea.Cmd) *Model {
	t.Helper()
	for steps := 0; cmd != nil; steps++ {
		if steps > 10000 {
			t.Fatal("command pump did not terminate")
		}
		msg := cmd()
		if msg == nil {
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(*Model)
	}
	return m
}

func TestInitRunsLayout(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	if m.settling {
		t.Error("still settling after synchronous run")
	}
	for _, n := range m.visible {
		if n.Pos == nil {
			t.Fatalf("visible node %s unpositioned after init", n.ID)
		}
	}
}

func TestAnimatedRunStreamsFrames(t *testing.T) {
	m := newTestModel(t, true)
	m = drain(t, m, m.Init())

	if m.settling {
		t.Error("frame stream did not finish")
	}
	for _, n := range m.visible {
		if n.Pos == nil {
			t.Fatalf("visible node %s unpositioned after stream", n.ID)
		}
	}
}

func TestInitialVisibleSliceIsTopLevels(t *testing.T) {
	m := newTestModel(t, false)
	for _, n := range m.visible {
		if n.Level > model.LevelCategory {
			t.Errorf("node %s at level %d visible before any expand", n.ID, n.Level)
		}
	}
}

func TestToggleExpandRevealsChildren(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	// Select a category node, then toggle it.
	for i, id := range m.order {
		if id == "person-0-cat-0" {
			m.selected = i
		}
	}
	before := len(m.visible)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, next.(*Model), cmd)

	if len(m.visible) <= before {
		t.Errorf("expand did not grow visible set: %d -> %d", before, len(m.visible))
	}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, next.(*Model), cmd)
	if len(m.visible) != before {
		t.Errorf("collapse did not restore visible set: want %d, got %d", before, len(m.visible))
	}
}

func TestSelectionCycles(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	first := m.selectedID()
	for range m.order {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(*Model)
	}
	if m.selectedID() != first {
		t.Errorf("full cycle ended on %s, started on %s", m.selectedID(), first)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(*Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(*Model)
	if m.selectedID() != first {
		t.Error("prev then next did not return to start")
	}
}

func TestPinAndUnpin(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	id := m.selectedID()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = next.(*Model)

	if !m.positions[id].Pinned() {
		t.Fatalf("node %s not pinned", id)
	}
	pinnedAt := *m.positions[id].Fixed

	// Pins survive a relayout.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = drain(t, next.(*Model), cmd)
	if got := m.positions[id].Pos; got == nil || *got != pinnedAt {
		t.Errorf("pinned node moved to %+v, pinned at %+v", got, pinnedAt)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	m = next.(*Model)
	if m.positions[id].Pinned() {
		t.Error("unpin left the pin in place")
	}
}

func TestResetClearsAllPins(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = next.(*Model)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'R'}})
	m = drain(t, next.(*Model), cmd)

	for id, n := range m.positions {
		if n.Pinned() {
			t.Errorf("node %s still pinned after reset", id)
		}
	}
}

func TestSaveInvokesCallback(t *testing.T) {
	nodes, edges := testutil.Generate(testutil.DefaultGeneratorConfig())
	idx := graphdata.Build(nodes, edges)
	opts := layout.DefaultOptions()
	opts.MaxIterations = 10

	var saved []model.Node
	m := New(idx, Options{
		Layout: opts,
		Save:   func(ns []model.Node) error { saved = ns; return nil },
	})
	m = drain(t, m, m.Init())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = drain(t, next.(*Model), cmd)

	if len(saved) != len(nodes) {
		t.Fatalf("save callback got %d nodes, want %d", len(saved), len(nodes))
	}
	if !strings.Contains(m.statusLine(), "saved") {
		t.Errorf("status line missing save confirmation: %q", m.statusLine())
	}
}

func TestQuitStopsRunner(t *testing.T) {
	m := newTestModel(t, true)
	cmd := m.Init() // run in flight

	next, quitCmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(*Model)
	if quitCmd == nil {
		t.Fatal("quit produced no command")
	}
	if msg := quitCmd(); msg != tea.Quit() {
		t.Errorf("quit key returned %T, want tea.QuitMsg", msg)
	}
	_ = cmd
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t, false)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(*Model)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size not applied: %dx%d", m.width, m.height)
	}
}

func TestViewContainsChrome(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	view := m.View()
	if !strings.Contains(view, "test") {
		t.Error("title missing from view")
	}
	if !strings.Contains(view, "visible") {
		t.Error("status line missing from view")
	}
}

func TestReloadPreservesPinsAndExpansion(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	// Expand a category and pin the selected node.
	for i, id := range m.order {
		if id == "person-0-cat-0" {
			m.selected = i
		}
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, next.(*Model), cmd)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = next.(*Model)
	pinnedID := m.selectedID()

	// Reload a snapshot with one extra person; ids otherwise unchanged.
	cfg := testutil.DefaultGeneratorConfig()
	cfg.People = 4
	nodes, edges := testutil.Generate(cfg)
	next, cmd = m.Update(ReloadMsg{Nodes: nodes, Edges: edges})
	m = drain(t, next.(*Model), cmd)

	if !m.vis.IsExpanded("person-0-cat-0") {
		t.Error("expansion lost across reload")
	}
	if !m.positions[pinnedID].Pinned() {
		t.Errorf("pin on %s lost across reload", pinnedID)
	}
	if _, ok := m.positions["person-3"]; !ok {
		t.Error("new node from reload missing")
	}
}

func TestFramesFromSupersededRunAreDropped(t *testing.T) {
	m := newTestModel(t, false)
	m = drain(t, m, m.Init())

	stale := layout.NewEngine(nil, nil, layout.DefaultOptions())
	next, cmd := m.Update(frameMsg{eng: stale, frame: layout.Frame{Final: true}})
	m = next.(*Model)
	if cmd != nil {
		t.Error("stale frame scheduled a follow-up")
	}
	_ = m
}
