package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/canopyviz/canopy/pkg/metrics"
	"github.com/canopyviz/canopy/pkg/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	level       INTEGER NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	pos_x       REAL,
	pos_y       REAL,
	fixed_x     REAL,
	fixed_y     REAL,
	parent_ids  TEXT NOT NULL DEFAULT '[]',
	child_count INTEGER NOT NULL DEFAULT 0,
	expanded    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS edges (
	id        TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS expansion (
	node_id TEXT PRIMARY KEY
);
`

// SQLiteSource reads and writes snapshots from a SQLite database.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// NewSQLiteSource opens (creating if needed) a snapshot database.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteSource{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Load reads nodes and edges concurrently.
func (s *SQLiteSource) Load(ctx context.Context) (*Snapshot, error) {
	defer metrics.Timer(metrics.SnapshotLoad)()
	snap := &Snapshot{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		nodes, err := s.loadNodes(ctx)
		if err != nil {
			return err
		}
		snap.Nodes = nodes
		return nil
	})
	g.Go(func() error {
		edges, err := s.loadEdges(ctx)
		if err != nil {
			return err
		}
		snap.Edges = edges
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteSource) loadNodes(ctx context.Context) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, level, title, pos_x, pos_y, fixed_x, fixed_y,
		       parent_ids, child_count, expanded
		FROM nodes ORDER BY level, id`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var (
			n          model.Node
			kind       string
			posX, posY sql.NullFloat64
			fixX, fixY sql.NullFloat64
			parentJSON string
			expanded   int
		)
		if err := rows.Scan(&n.ID, &kind, &n.Level, &n.Title, &posX, &posY,
			&fixX, &fixY, &parentJSON, &n.ChildCount, &expanded); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Kind = model.Kind(kind)
		n.Expanded = expanded != 0
		if posX.Valid && posY.Valid {
			n.Pos = &model.Point{X: posX.Float64, Y: posY.Float64}
		}
		if fixX.Valid && fixY.Valid {
			n.Fixed = &model.Point{X: fixX.Float64, Y: fixY.Float64}
		}
		if err := json.Unmarshal([]byte(parentJSON), &n.ParentIDs); err != nil {
			return nil, fmt.Errorf("node %s: parse parent_ids: %w", n.ID, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *SQLiteSource) loadEdges(ctx context.Context) ([]model.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source_id, target_id FROM edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var e model.Edge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// SaveNodes inserts or replaces full node rows, used by importers and
// test fixtures.
func (s *SQLiteSource) SaveNodes(ctx context.Context, nodes []model.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO nodes
			(id, kind, level, title, pos_x, pos_y, fixed_x, fixed_y, parent_ids, child_count, expanded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		parents, err := json.Marshal(n.ParentIDs)
		if err != nil {
			return fmt.Errorf("node %s: marshal parents: %w", n.ID, err)
		}
		var posX, posY, fixX, fixY any
		if n.Pos != nil {
			posX, posY = n.Pos.X, n.Pos.Y
		}
		if n.Fixed != nil {
			fixX, fixY = n.Fixed.X, n.Fixed.Y
		}
		expanded := 0
		if n.Expanded {
			expanded = 1
		}
		if _, err := stmt.ExecContext(ctx, n.ID, string(n.Kind), n.Level, n.Title,
			posX, posY, fixX, fixY, string(parents), n.ChildCount, expanded); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// SaveEdges inserts or replaces edge rows.
func (s *SQLiteSource) SaveEdges(ctx context.Context, edges []model.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO edges (id, source_id, target_id) VALUES (?, ?, ?)`,
			e.ID, e.SourceID, e.TargetID); err != nil {
			return fmt.Errorf("insert edge %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// SavePositions updates position and pin columns for the given nodes.
func (s *SQLiteSource) SavePositions(ctx context.Context, nodes []model.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE nodes SET pos_x = ?, pos_y = ?, fixed_x = ?, fixed_y = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if n.Pos == nil {
			continue
		}
		var fixX, fixY any
		if n.Fixed != nil {
			fixX, fixY = n.Fixed.X, n.Fixed.Y
		}
		if _, err := stmt.ExecContext(ctx, n.Pos.X, n.Pos.Y, fixX, fixY, n.ID); err != nil {
			return fmt.Errorf("update node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// SaveExpansion replaces the persisted expansion set.
func (s *SQLiteSource) SaveExpansion(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expansion`); err != nil {
		return fmt.Errorf("clear expansion: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT INTO expansion (node_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("insert expansion %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// LoadExpansion reads the persisted expansion set.
func (s *SQLiteSource) LoadExpansion(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id FROM expansion ORDER BY node_id`)
	if err != nil {
		return nil, fmt.Errorf("query expansion: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expansion: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
