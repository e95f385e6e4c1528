package datasource

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/canopyviz/canopy/pkg/debug"
	"github.com/canopyviz/canopy/pkg/metrics"
	"github.com/canopyviz/canopy/pkg/model"
)

// record is one JSONL line: a tagged union of node and edge.
type record struct {
	Record string      `json:"record"`
	Node   *model.Node `json:"node,omitempty"`
	Edge   *model.Edge `json:"edge,omitempty"`
}

// JSONLSource reads and writes snapshots as line-delimited JSON. The
// expansion set is kept in a sidecar file next to the data so the
// snapshot itself stays a pure node/edge export.
type JSONLSource struct {
	path string
}

// NewJSONLSource creates a JSONL source for the given path.
func NewJSONLSource(path string) *JSONLSource {
	return &JSONLSource{path: path}
}

// Load reads the full snapshot. Malformed lines are skipped with a debug
// note rather than failing the load; the integrity pass reports anything
// structurally wrong with what remains.
func (s *JSONLSource) Load(ctx context.Context) (*Snapshot, error) {
	defer metrics.Timer(metrics.SnapshotLoad)()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap := &Snapshot{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			debug.Log("datasource: %s:%d: skipping malformed line: %v", s.path, lineNo, err)
			continue
		}
		switch {
		case rec.Record == "node" && rec.Node != nil:
			snap.Nodes = append(snap.Nodes, *rec.Node)
		case rec.Record == "edge" && rec.Edge != nil:
			snap.Edges = append(snap.Edges, *rec.Edge)
		default:
			debug.Log("datasource: %s:%d: unknown record %q", s.path, lineNo, rec.Record)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return snap, nil
}

// SavePositions rewrites the snapshot file with updated positions. The
// write is atomic (temp file + rename) so a concurrent watcher never
// observes a half-written file.
func (s *JSONLSource) SavePositions(ctx context.Context, nodes []model.Node) error {
	snap, err := s.Load(ctx)
	if err != nil {
		return err
	}

	updated := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		updated[n.ID] = n
	}
	for i := range snap.Nodes {
		if u, ok := updated[snap.Nodes[i].ID]; ok && u.Pos != nil {
			snap.Nodes[i].Pos = u.Pos
			snap.Nodes[i].Fixed = u.Fixed
		}
	}

	return s.writeSnapshot(snap)
}

func (s *JSONLSource) writeSnapshot(snap *Snapshot) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".canopy-*.jsonl")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i := range snap.Nodes {
		if err := writeRecord(w, record{Record: "node", Node: &snap.Nodes[i]}); err != nil {
			tmp.Close()
			return err
		}
	}
	for i := range snap.Edges {
		if err := writeRecord(w, record{Record: "edge", Edge: &snap.Edges[i]}); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func writeRecord(w *bufio.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func (s *JSONLSource) expansionPath() string {
	return strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".expansion.json"
}

// SaveExpansion writes the expansion set to the sidecar file.
func (s *JSONLSource) SaveExpansion(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal expansion: %w", err)
	}
	return os.WriteFile(s.expansionPath(), data, 0o644)
}

// LoadExpansion reads the sidecar expansion set, empty when absent.
func (s *JSONLSource) LoadExpansion(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.expansionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read expansion: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse expansion: %w", err)
	}
	return ids, nil
}

// Close is a no-op for file-backed sources.
func (s *JSONLSource) Close() error { return nil }
