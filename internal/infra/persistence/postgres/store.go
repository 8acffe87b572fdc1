// Package postgres archives resolved sessions in a PostgreSQL table with a
// JSONB payload per session.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"bestiary/pkg/domain"
)

var _ domain.ArchiveStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/bestiary?sslmode=disable"
)

const schema = `CREATE TABLE IF NOT EXISTS bestiary_sessions (
	id TEXT PRIMARY KEY,
	resolved_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL
)`

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// NewStore connects to dsn (falling back to a local default), verifies the
// connection and ensures the sessions table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sessions table: %w", err)
	}
	return &Store{db: db}, nil
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
		`INSERT INTO bestiary_sessions (id, resolved_at, payload) VALUES ($1,$2,$3) ON CONFLICT (id) DO NOTHING`,
		record.SessionID, record.ResolvedAt.UTC(), payload)
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
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM bestiary_sessions WHERE id=$1`, sessionID).Scan(&payload)
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
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM bestiary_sessions ORDER BY resolved_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.SessionRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
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

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

func decode(payload []byte) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}
