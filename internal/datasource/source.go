// Package datasource loads graph snapshots for the viewer and persists
// what the layout engine hands back: resolved positions, manual pins and
// the expansion set. The engine itself never touches storage; this
// package is the external owner the engine contracts leave that to.
//
// Two formats are supported, selected by file extension: JSONL (one
// node/edge record per line) and SQLite.
package datasource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/canopyviz/canopy/pkg/model"
)

// Snapshot is a full node/edge set as read from storage.
type Snapshot struct {
	Nodes []model.Node
	Edges []model.Edge
}

// Source reads and writes graph snapshots.
type Source interface {
	// Load reads the full snapshot.
	Load(ctx context.Context) (*Snapshot, error)

	// SavePositions writes resolved positions and pin state back for the
	// given nodes. Nodes without positions are left untouched.
	SavePositions(ctx context.Context, nodes []model.Node) error

	// SaveExpansion persists the set of expanded node ids.
	SaveExpansion(ctx context.Context, ids []string) error

	// LoadExpansion reads the persisted expansion set, empty when none
	// was saved.
	LoadExpansion(ctx context.Context) ([]string, error)

	Close() error
}

// Open picks a source implementation from the path's extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json":
		return NewJSONLSource(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteSource(path)
	default:
		return nil, fmt.Errorf("unsupported data file %q (want .jsonl or .db)", path)
	}
}
