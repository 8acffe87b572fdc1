package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"bestiary/internal/archive/archivetest"
	"bestiary/internal/infra/persistence/postgres/testutil"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("unexpected driver %q", driverName)
		}
		return db, nil
	})
	t.Cleanup(restore)
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, conn
}

func TestConformance(t *testing.T) {
	s, _ := newStubStore(t)
	archivetest.Conformance(t, s)
}

func TestNewStoreCreatesSchema(t *testing.T) {
	_, conn := newStubStore(t)
	if len(conn.Execs) == 0 || !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS bestiary_sessions") {
		t.Fatalf("expected schema creation, got %v", conn.Execs)
	}
}

func TestSaveStoresJSONPayload(t *testing.T) {
	s, conn := newStubStore(t)
	if err := s.Save(context.Background(), archivetest.Record("p1", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	rows := conn.Rows("bestiary_sessions")
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	payload, ok := rows[0]["payload"].([]byte)
	if !ok || !strings.Contains(string(payload), `"session_id":"p1"`) {
		t.Fatalf("unexpected payload %v", rows[0]["payload"])
	}
}

func TestNewStoreSurfacesConnectionErrors(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://example"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestQueryFailuresPropagate(t *testing.T) {
	s, conn := newStubStore(t)
	conn.FailTables = map[string]bool{"bestiary_sessions": true}
	ctx := context.Background()
	if err := s.Save(ctx, archivetest.Record("x", time.Now())); err == nil {
		t.Fatal("expected insert failure")
	}
	if _, err := s.List(ctx); err == nil {
		t.Fatal("expected select failure")
	}
}
