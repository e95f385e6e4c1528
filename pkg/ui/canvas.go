package ui

import (
	"math"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/canopyviz/canopy/pkg/metrics"
	"github.com/canopyviz/canopy/pkg/model"
)

// maxLabelWidth caps how much horizontal space one node may claim.
const maxLabelWidth = 18

// canvasLabel is a node label placed on the character grid.
type canvasLabel struct {
	row, col int
	text     string // plain text, styling applied at render time
	width    int
	selected bool
	pinned   bool
}

// renderCanvas projects world positions onto a w x h character grid.
// Labels keep their relative arrangement; overlapping labels on a row are
// shifted right rather than clipped.
func renderCanvas(nodes []model.Node, selectedID string, w, h int) string {
	defer metrics.Timer(metrics.CanvasRender)()
	if w < 10 || h < 3 || len(nodes) == 0 {
		return ""
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		if n.Pos == nil {
			continue
		}
		minX = math.Min(minX, n.Pos.X)
		minY = math.Min(minY, n.Pos.Y)
		maxX = math.Max(maxX, n.Pos.X)
		maxY = math.Max(maxY, n.Pos.Y)
	}
	if math.IsInf(minX, 1) {
		return ""
	}
	spanX := math.Max(maxX-minX, 1)
	spanY := math.Max(maxY-minY, 1)

	labels := make([]canvasLabel, 0, len(nodes))
	for _, n := range nodes {
		if n.Pos == nil {
			continue
		}
		text := n.Title
		if text == "" {
			text = n.ID
		}
		limit := maxLabelWidth
		if limit > w-2 {
			limit = w - 2
		}
		text = runewidth.Truncate(text, limit, "…")
		if n.Pinned() {
			text = "●" + text
		}
		tw := runewidth.StringWidth(text)

		col := int((n.Pos.X - minX) / spanX * float64(w-tw-1))
		row := int((n.Pos.Y - minY) / spanY * float64(h-1))
		labels = append(labels, canvasLabel{
			row:      clampInt(row, 0, h-1),
			col:      clampInt(col, 0, w-tw),
			text:     text,
			width:    tw,
			selected: n.ID == selectedID,
			pinned:   n.Pinned(),
		})
	}

	byRow := make(map[int][]canvasLabel, h)
	for _, l := range labels {
		byRow[l.row] = append(byRow[l.row], l)
	}

	var b strings.Builder
	for row := 0; row < h; row++ {
		line := byRow[row]
		sort.Slice(line, func(i, j int) bool {
			if line[i].col != line[j].col {
				return line[i].col < line[j].col
			}
			return line[i].text < line[j].text
		})

		cursor := 0
		for _, l := range line {
			col := l.col
			if col < cursor {
				col = cursor + 1 // nudge right past the previous label
			}
			if col+l.width > w {
				break
			}
			b.WriteString(strings.Repeat(" ", col-cursor))
			b.WriteString(styleLabel(l))
			cursor = col + l.width
		}
		if row < h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func styleLabel(l canvasLabel) string {
	switch {
	case l.selected:
		return selectedStyle.Render(l.text)
	case l.pinned:
		return pinnedStyle.Render(l.text)
	default:
		return nodeStyle.Render(l.text)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
