package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/canopyviz/canopy/internal/datasource"
	"github.com/canopyviz/canopy/pkg/config"
	"github.com/canopyviz/canopy/pkg/export"
	"github.com/canopyviz/canopy/pkg/graphdata"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/model"
	"github.com/canopyviz/canopy/pkg/ui"
	"github.com/canopyviz/canopy/pkg/version"
	"github.com/canopyviz/canopy/pkg/visibility"
	"github.com/canopyviz/canopy/pkg/watcher"
)

func main() {
	dataPath := flag.String("data", "", "Graph snapshot to open (.jsonl or .db); defaults to data_path from config")
	exportPath := flag.String("export", "", "Render a snapshot to this file and exit (format from extension)")
	exportFormat := flag.String("format", "", "Export format override: svg or png")
	title := flag.String("title", "", "Title for the export summary block")
	expandFlag := flag.String("expand", "", "Comma-separated node ids to expand before resolving visibility")
	expandAll := flag.Bool("expand-all", false, "Expand every expandable node")
	seed := flag.Int64("seed", 0, "Layout seed override (0 keeps the default)")
	iterations := flag.Int("iterations", 0, "Layout iteration budget override")
	resetPins := flag.Bool("reset-pins", false, "Discard manual positions before the layout")
	savePositions := flag.Bool("save", false, "Persist resolved positions back to the data source (export mode)")
	watchFlag := flag.Bool("watch", false, "Reload the TUI when the data file changes")
	noAnimate := flag.Bool("no-animate", false, "Jump to the final layout instead of animating")
	showIDs := flag.Bool("show-ids", false, "Render node ids alongside titles")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	helpFlag := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *helpFlag {
		fmt.Println("Usage: canopy [options]")
		fmt.Println("\nA layout and visibility viewer for hierarchical node-link graphs.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("canopy %s\n", version.Version)
		os.Exit(0)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", cfgErr)
		cfg = config.DefaultConfig()
	}

	path := *dataPath
	if path == "" {
		path = cfg.DataPath
	}
	if path == "" {
		fatalf("no data file: pass --data or set data_path in %s", config.ConfigPath())
	}

	src, err := datasource.Open(path)
	if err != nil {
		fatalf("%v", err)
	}
	defer src.Close()

	ctx := context.Background()
	snap, err := src.Load(ctx)
	if err != nil {
		fatalf("load %s: %v", path, err)
	}
	if len(snap.Nodes) == 0 {
		fmt.Println("Snapshot is empty; nothing to show.")
		os.Exit(0)
	}
	if *resetPins {
		snap.Nodes = layout.ClearPins(snap.Nodes)
	}

	idx := graphdata.Build(snap.Nodes, snap.Edges)
	for _, w := range idx.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	opts := layoutOptions(cfg, *seed, *iterations)

	if *exportPath != "" {
		if err := runExport(ctx, src, idx, opts, exportOptions{
			path:    *exportPath,
			format:  *exportFormat,
			title:   *title,
			expand:  splitIDs(*expandFlag),
			all:     *expandAll,
			save:    *savePositions,
			showIDs: *showIDs || cfg.UI.ShowIDs,
		}); err != nil {
			fatalf("%v", err)
		}
		return
	}

	runTUI(ctx, src, idx, opts, tuiOptions{
		title:   *title,
		animate: cfg.UI.Animate && !*noAnimate,
		watch:   *watchFlag,
		path:    path,
		expand:  splitIDs(*expandFlag),
	})
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func splitIDs(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// layoutOptions merges config file tuning with flag overrides on top of
// the engine defaults.
func layoutOptions(cfg config.Config, seed int64, iterations int) layout.Options {
	opts := layout.DefaultOptions()
	lc := cfg.Layout
	if lc.RepulsionStrength != 0 {
		opts.NodeRepulsionStrength = lc.RepulsionStrength
	}
	if lc.LinkDistance != 0 {
		opts.LinkDistance = lc.LinkDistance
	}
	if lc.LinkStrength != 0 {
		opts.LinkStrength = lc.LinkStrength
	}
	if lc.AlphaDecay != 0 {
		opts.AlphaDecay = lc.AlphaDecay
	}
	if lc.VelocityDecay != 0 {
		opts.VelocityDecay = lc.VelocityDecay
	}
	if lc.MaxIterations != 0 {
		opts.MaxIterations = lc.MaxIterations
	}
	if lc.LevelSeparation != 0 {
		opts.LevelSeparation = lc.LevelSeparation
	}
	if lc.CollisionPadding != 0 {
		opts.CollisionPadding = lc.CollisionPadding
	}
	opts.CenterX = cfg.Canvas.CenterX
	opts.CenterY = cfg.Canvas.CenterY
	if seed != 0 {
		opts.Seed = seed
	}
	if iterations != 0 {
		opts.MaxIterations = iterations
	}
	return opts
}

type exportOptions struct {
	path    string
	format  string
	title   string
	expand  []string
	all     bool
	save    bool
	showIDs bool
}

// runExport resolves visibility, lays out the visible slice and renders it
// to a static image.
func runExport(ctx context.Context, src datasource.Source, idx *graphdata.Index, opts layout.Options, eo exportOptions) error {
	st := visibility.NewState(idx)
	if saved, err := src.LoadExpansion(ctx); err == nil {
		st.Expand(saved...)
	} else {
		fmt.Fprintf(os.Stderr, "Warning: could not load expansion state: %v\n", err)
	}
	st.Expand(eo.expand...)
	if eo.all {
		for _, n := range idx.Nodes() {
			st.Expand(n.ID)
		}
	}

	visSet := st.Resolve()
	nodes := visibility.VisibleNodes(idx.Nodes(), visSet)
	edges := visibility.VisibleEdges(idx.Edges(), visSet)

	res := layout.Calculate(ctx, nodes, edges, opts)
	if !res.Converged {
		fmt.Fprintf(os.Stderr, "Warning: layout stopped before settling (%d iterations)\n", res.Iterations)
	}

	if eo.save {
		if err := src.SavePositions(ctx, res.Nodes); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}
	}

	if err := export.SaveSnapshot(export.SnapshotOptions{
		Path:    eo.path,
		Format:  eo.format,
		Title:   eo.title,
		ShowIDs: eo.showIDs,
		Nodes:   res.Nodes,
		Edges:   res.Edges,
	}); err != nil {
		return err
	}
	fmt.Printf("Exported %d nodes, %d edges to %s\n", len(res.Nodes), len(res.Edges), eo.path)
	return nil
}

type tuiOptions struct {
	title   string
	animate bool
	watch   bool
	path    string
	expand  []string
}

func runTUI(ctx context.Context, src datasource.Source, idx *graphdata.Index, opts layout.Options, to tuiOptions) {
	m := ui.New(idx, ui.Options{
		Title:   to.title,
		Animate: to.animate,
		Layout:  opts,
		Save: func(nodes []model.Node) error {
			return src.SavePositions(ctx, nodes)
		},
	})

	if saved, err := src.LoadExpansion(ctx); err == nil {
		m.Expand(saved...)
	} else {
		fmt.Fprintf(os.Stderr, "Warning: could not load expansion state: %v\n", err)
	}
	m.Expand(to.expand...)

	p := tea.NewProgram(m, tea.WithAltScreen())

	var w *watcher.Watcher
	if to.watch {
		var err error
		w, err = watcher.New(to.path)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: watch disabled: %v\n", err)
			w = nil
		}
	}
	if w != nil {
		defer w.Stop()
		go func() {
			for range w.Changed() {
				snap, err := src.Load(ctx)
				if err != nil || len(snap.Nodes) == 0 {
					continue
				}
				p.Send(ui.ReloadMsg{Nodes: snap.Nodes, Edges: snap.Edges})
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		fatalf("running viewer: %v", err)
	}

	if err := src.SaveExpansion(ctx, m.ExpandedIDs()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save expansion state: %v\n", err)
	}
}
