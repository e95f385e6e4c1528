// Package export renders a laid-out hierarchy to static image files. The
// renderer draws whatever nodes it is handed at the positions they carry;
// visibility filtering and layout happen upstream.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/canopyviz/canopy/pkg/model"
)

// SnapshotOptions controls snapshot export behaviour.
type SnapshotOptions struct {
	Path    string // output path; format inferred from extension when Format empty
	Format  string // "svg" or "png" (case-insensitive)
	Title   string // optional title rendered in the summary block
	ShowIDs bool   // render node ids under the titles

	Nodes []model.Node // positioned, already visibility-filtered
	Edges []model.Edge // already filtered to visible endpoints
}

// SaveSnapshot renders a static snapshot (SVG or PNG) of the positioned
// graph with a small summary block and a kind legend.
func SaveSnapshot(opts SnapshotOptions) error {
	if len(opts.Nodes) == 0 {
		return fmt.Errorf("no nodes to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	scene, err := buildScene(opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	switch format {
	case "png":
		return renderPNG(opts.Path, scene)
	default:
		return renderSVG(opts.Path, scene)
	}
}

// --- scene construction ----------------------------------------------------

type sceneNode struct {
	ID    string
	Title string
	Kind  model.Kind
	Level int
	// top-left corner and box size in canvas coordinates
	X, Y, W, H float64
	Pinned     bool
}

type sceneEdge struct {
	// box centers in canvas coordinates
	X1, Y1, X2, Y2 float64
	Hierarchy      bool
}

type scene struct {
	Nodes   []sceneNode
	Edges   []sceneEdge
	Width   int
	Height  int
	ShowIDs bool
	Summary summaryInfo
}

type summaryInfo struct {
	Title     string
	NodeCount int
	EdgeCount int
	Pinned    int
}

const (
	scenePadding = 36.0
	headerHeight = 96.0
	minWidth     = 640
	minHeight    = 480
)

// buildScene translates world coordinates (centered, possibly negative)
// into a padded canvas with the header band on top.
func buildScene(opts SnapshotOptions) (scene, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, n := range opts.Nodes {
		if n.Pos == nil {
			return scene{}, fmt.Errorf("node %s has no position; run the layout first", n.ID)
		}
		fp := model.NodeFootprint(n.Level, n.Kind)
		hw, hh := fp.Half()
		minX = math.Min(minX, n.Pos.X-hw)
		minY = math.Min(minY, n.Pos.Y-hh)
		maxX = math.Max(maxX, n.Pos.X+hw)
		maxY = math.Max(maxY, n.Pos.Y+hh)
	}

	offX := scenePadding - minX
	offY := scenePadding + headerHeight - minY

	s := scene{
		Width:   int(maxX - minX + 2*scenePadding),
		Height:  int(maxY - minY + 2*scenePadding + headerHeight),
		ShowIDs: opts.ShowIDs,
	}
	if s.Width < minWidth {
		s.Width = minWidth
	}
	if s.Height < minHeight {
		s.Height = minHeight
	}

	pinned := 0
	centers := make(map[string][2]float64, len(opts.Nodes))
	byID := make(map[string]model.Node, len(opts.Nodes))
	for _, n := range opts.Nodes {
		fp := model.NodeFootprint(n.Level, n.Kind)
		hw, hh := fp.Half()
		cx := n.Pos.X + offX
		cy := n.Pos.Y + offY
		centers[n.ID] = [2]float64{cx, cy}
		byID[n.ID] = n
		if n.Pinned() {
			pinned++
		}
		title := n.Title
		if title == "" {
			title = n.ID
		}
		s.Nodes = append(s.Nodes, sceneNode{
			ID:     n.ID,
			Title:  truncate(title, 24),
			Kind:   n.Kind,
			Level:  n.Level,
			X:      cx - hw,
			Y:      cy - hh,
			W:      fp.W,
			H:      fp.H,
			Pinned: n.Pinned(),
		})
	}

	for _, e := range opts.Edges {
		from, ok1 := centers[e.SourceID]
		to, ok2 := centers[e.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		hier := false
		if child, ok := byID[e.TargetID]; ok {
			for _, pid := range child.ParentIDs {
				if pid == e.SourceID {
					hier = true
				}
			}
		}
		s.Edges = append(s.Edges, sceneEdge{
			X1: from[0], Y1: from[1], X2: to[0], Y2: to[1],
			Hierarchy: hier,
		})
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Hierarchy Snapshot"
	}
	s.Summary = summaryInfo{
		Title:     title,
		NodeCount: len(s.Nodes),
		EdgeCount: len(s.Edges),
		Pinned:    pinned,
	}
	return s, nil
}

// --- rendering -------------------------------------------------------------

var (
	colorRoot     = color.RGBA{0xbb, 0xde, 0xfb, 0xff}
	colorPerson   = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorCategory = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorDocument = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorFolder   = color.RGBA{0xff, 0xe0, 0xb2, 0xff}
	colorPet      = color.RGBA{0xe1, 0xbe, 0xe7, 0xff}

	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorPinRing  = color.RGBA{0xd3, 0x2f, 0x2f, 0xff}
	colorHierEdge = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorXrefEdge = color.RGBA{0x9e, 0x9e, 0x9e, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func kindColor(k model.Kind) color.RGBA {
	switch k {
	case model.KindRoot:
		return colorRoot
	case model.KindPerson:
		return colorPerson
	case model.KindCategory:
		return colorCategory
	case model.KindDocument:
		return colorDocument
	case model.KindFolder:
		return colorFolder
	case model.KindPet, model.KindAsset:
		return colorPet
	default:
		return colorDocument
	}
}

func renderPNG(path string, s scene) error {
	dc := gg.NewContext(s.Width, s.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(s.Width)-32, headerHeight-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummary(dc, s)
	drawLegend(dc, s)

	for _, e := range s.Edges {
		if e.Hierarchy {
			dc.SetColor(colorHierEdge)
			dc.SetLineWidth(2)
		} else {
			dc.SetColor(colorXrefEdge)
			dc.SetLineWidth(1)
		}
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range s.Nodes {
		dc.SetColor(kindColor(n.Kind))
		dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
		dc.Fill()
		stroke := colorStroke
		width := 1.2
		if n.Pinned {
			stroke = colorPinRing
			width = 2.4
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
		dc.Stroke()

		dc.SetColor(colorText)
		dc.DrawStringAnchored(n.Title, n.X+10, n.Y+16, 0, 0.5)
		if s.ShowIDs {
			dc.SetColor(colorSubtle)
			dc.DrawStringAnchored(n.ID, n.X+10, n.Y+32, 0, 0.5)
		}
	}

	return dc.SavePNG(path)
}

func renderSVG(path string, s scene) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return renderSVGToWriter(file, s)
}

func renderSVGToWriter(w io.Writer, s scene) error {
	canvas := svg.New(w)
	canvas.Start(s.Width, s.Height)
	canvas.Rect(0, 0, s.Width, s.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, s.Width-32, int(headerHeight-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummarySVG(canvas, s)
	drawLegendSVG(canvas, s)

	for _, e := range s.Edges {
		style := fmt.Sprintf("stroke:%s;stroke-width:2", css(colorHierEdge))
		if !e.Hierarchy {
			style = fmt.Sprintf("stroke:%s;stroke-width:1;stroke-dasharray:4 3", css(colorXrefEdge))
		}
		canvas.Line(int(e.X1), int(e.Y1), int(e.X2), int(e.Y2), style)
	}

	for _, n := range s.Nodes {
		stroke := css(colorStroke)
		width := "1.2"
		if n.Pinned {
			stroke = css(colorPinRing)
			width = "2.4"
		}
		canvas.Roundrect(int(n.X), int(n.Y), int(n.W), int(n.H), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s", css(kindColor(n.Kind)), stroke, width))
		canvas.Text(int(n.X)+10, int(n.Y)+18, n.Title,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		if s.ShowIDs {
			canvas.Text(int(n.X)+10, int(n.Y)+34, n.ID,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
		}
	}

	canvas.End()
	return nil
}

func drawSummary(dc *gg.Context, s scene) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(s.Summary.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("nodes: %d  edges: %d", s.Summary.NodeCount, s.Summary.EdgeCount), 32, 60, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("pinned: %d", s.Summary.Pinned), 32, 80, 0, 0.5)
}

func drawLegend(dc *gg.Context, s scene) {
	boxW, boxH := 170.0, 80.0
	x := float64(s.Width) - boxW - 20
	y := 20.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+16, 0, 0.5)
	legendRow(dc, x+12, y+32, colorPerson, "Person")
	legendRow(dc, x+12, y+48, colorCategory, "Category")
	legendRow(dc, x+12, y+64, colorDocument, "Document")
}

func legendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-7, 12, 12, 3)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y-7, 12, 12, 3)
	dc.Stroke()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+18, y, 0, 0.5)
}

func drawSummarySVG(canvas *svg.SVG, s scene) {
	canvas.Text(32, 40, s.Summary.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 60, fmt.Sprintf("nodes: %d  edges: %d", s.Summary.NodeCount, s.Summary.EdgeCount),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 80, fmt.Sprintf("pinned: %d", s.Summary.Pinned),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

func drawLegendSVG(canvas *svg.SVG, s scene) {
	boxW, boxH := 170, 80
	x := s.Width - boxW - 20
	y := 20
	canvas.Roundrect(x, y, boxW, boxH, 10, 10,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+16, "Legend",
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	legendRowSVG(canvas, x+12, y+32, colorPerson, "Person")
	legendRowSVG(canvas, x+12, y+48, colorCategory, "Category")
	legendRowSVG(canvas, x+12, y+64, colorDocument, "Document")
}

func legendRowSVG(canvas *svg.SVG, x, y int, c color.RGBA, label string) {
	canvas.Roundrect(x, y-7, 12, 12, 3, 3,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(c), css(colorStroke)))
	canvas.Text(x+18, y, label,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
