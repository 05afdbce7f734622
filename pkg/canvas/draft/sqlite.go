package draft

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// SQLiteStore persists drafts to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite draft store.
// The path should be a file path (e.g., "./drafts.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			workflow_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			saved_at TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 0,
			data BLOB NOT NULL,
			PRIMARY KEY (workflow_id, version)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_drafts_workflow_id
		ON drafts(workflow_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, workflowID string) (graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return graph.New(), ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM drafts
		WHERE workflow_id = ?
		ORDER BY version DESC
		LIMIT 1
	`, workflowID).Scan(&data)

	if err == sql.ErrNoRows {
		return graph.New(), ErrNotFound
	}
	if err != nil {
		return graph.New(), fmt.Errorf("load draft: %w", err)
	}

	g, err := graph.Unmarshal(data)
	if err != nil {
		return graph.New(), fmt.Errorf("load draft: %w", err)
	}
	return g, nil
}

// SaveDraft implements Store.
func (s *SQLiteStore) SaveDraft(ctx context.Context, workflowID string, g graph.Graph) error {
	data, err := graph.Marshal(g)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Version numbers are per workflow and strictly increasing
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (workflow_id, version, saved_at, active, data)
		VALUES (
			?,
			COALESCE((SELECT MAX(version) FROM drafts WHERE workflow_id = ?), 0) + 1,
			?, 0, ?
		)
	`, workflowID, workflowID, time.Now().UTC().Format(time.RFC3339Nano), data)

	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Activate implements Store.
func (s *SQLiteStore) Activate(ctx context.Context, workflowID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	var (
		res sql.Result
		err error
	)
	if active {
		res, err = s.db.ExecContext(ctx, `
			UPDATE drafts
			SET active = CASE
				WHEN version = (SELECT MAX(version) FROM drafts WHERE workflow_id = ?) THEN 1
				ELSE 0
			END
			WHERE workflow_id = ?
		`, workflowID, workflowID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE drafts SET active = 0 WHERE workflow_id = ?
		`, workflowID)
	}
	if err != nil {
		return fmt.Errorf("activate draft: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate draft: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListVersions implements Store.
func (s *SQLiteStore) ListVersions(ctx context.Context, workflowID string) ([]VersionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT version, saved_at, LENGTH(data), active
		FROM drafts
		WHERE workflow_id = ?
		ORDER BY version
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var infos []VersionInfo
	for rows.Next() {
		var info VersionInfo
		var savedAt string
		var active int
		if err := rows.Scan(&info.Version, &savedAt, &info.Bytes, &active); err != nil {
			return nil, fmt.Errorf("scan version info: %w", err)
		}
		info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		info.Active = active != 0
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return infos, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
