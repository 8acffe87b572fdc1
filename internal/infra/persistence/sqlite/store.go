// Package sqlite archives resolved sessions in an embedded SQLite file, one
// JSON payload row per session.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"bestiary/pkg/domain"
)

var _ domain.ArchiveStore = (*Store)(nil)

// DefaultPath is used when NewStore receives an empty path.
const DefaultPath = "bestiary.db"

const schema = `CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	resolved_at TEXT NOT NULL,
	payload BLOB NOT NULL
)`

// Store is safe for concurrent use; database/sql serialises access.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the archive at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Save implements domain.ArchiveStore.
func (s *Store) Save(ctx context.Context, record domain.SessionRecord) error {
	if record.SessionID == "" {
		return fmt.Errorf("save session: empty session id")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", record.SessionID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id,resolved_at,payload) VALUES(?,?,?) ON CONFLICT(id) DO NOTHING`,
		record.SessionID, record.ResolvedAt.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", record.SessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session %s: %w", record.SessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("save %s: %w", record.SessionID, domain.ErrSessionExists)
	}
	return nil
}

// Get implements domain.ArchiveStore.
func (s *Store) Get(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE id=?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionRecord{}, fmt.Errorf("get %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("select session %s: %w", sessionID, err)
	}
	return decode(payload)
}

// List implements domain.ArchiveStore.
func (s *Store) List(ctx context.Context) ([]domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM sessions ORDER BY resolved_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.SessionRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	domain.SortSessionRecords(out)
	return out, nil
}

// Close implements domain.ArchiveStore.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func decode(payload []byte) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}
