// Package testutil provides a stub database/sql driver standing in for
// Postgres in archive tests. It understands the narrow SQL dialect the
// archive emits: INSERT (with ON CONFLICT DO NOTHING / DO UPDATE), SELECT
// with an optional single-column equality filter, and DELETE by column.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq uint64

// StubConn records statements and holds table rows in memory.
type StubConn struct {
	mu         sync.Mutex
	Execs      []string
	Tables     map[string][]map[string]any
	FailExec   bool
	FailPing   bool
	FailBegin  bool
	FailCommit bool
	RowsErr    error
	FailTables map[string]bool
}

// NewStubDB registers a sql.DB backed by a fresh stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("stubpg%d", atomic.AddUint64(&stubSeq, 1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Rows returns a copy of the rows stored for table.
func (c *StubConn) Rows(table string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.Tables[table]))
	for _, row := range c.Tables[table] {
		cp := make(map[string]any, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "INSERT INTO"):
		return c.insert(query, upper, args)
	case strings.HasPrefix(upper, "DELETE FROM"):
		table, col, err := parseDelete(query)
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("missing args for delete %s", table)
		}
		kept, removed := filterRows(c.Tables[table], col, args[0].Value)
		c.Tables[table] = kept
		return driver.RowsAffected(removed), nil
	}
	return driver.RowsAffected(0), nil
}

func (c *StubConn) insert(query, upper string, args []driver.NamedValue) (driver.Result, error) {
	table, cols, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("exec fail for %s", table)
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", table)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	if strings.Contains(upper, "ON CONFLICT") {
		primary := cols[0]
		kept, removed := filterRows(c.Tables[table], primary, row[primary])
		if removed > 0 && strings.Contains(upper, "DO NOTHING") {
			return driver.RowsAffected(0), nil
		}
		c.Tables[table] = kept
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[sel.table] {
		return nil, fmt.Errorf("query fail for %s", sel.table)
	}
	values := make([][]driver.Value, 0, len(c.Tables[sel.table]))
	for _, row := range c.Tables[sel.table] {
		if sel.where != "" {
			if len(args) == 0 {
				return nil, fmt.Errorf("missing args for select %s", sel.table)
			}
			if row[sel.where] != args[0].Value {
				continue
			}
		}
		vals := make([]driver.Value, len(sel.cols))
		for i, col := range sel.cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: sel.cols, rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}
func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func filterRows(rows []map[string]any, col string, value any) ([]map[string]any, int64) {
	var kept []map[string]any
	var removed int64
	for _, row := range rows {
		if row[col] == value {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	return kept, removed
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	return table, splitColumns(rest[open+1 : closeIdx]), nil
}

func parseDelete(query string) (string, string, error) {
	lower := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(lower, "delete from ") {
		return "", "", fmt.Errorf("cannot parse delete: %s", query)
	}
	rest := strings.TrimSpace(lower[len("delete from "):])
	whereIdx := strings.Index(rest, " where ")
	if whereIdx == -1 {
		return "", "", fmt.Errorf("cannot parse delete: %s", query)
	}
	col, err := equalityColumn(rest[whereIdx+len(" where "):])
	if err != nil {
		return "", "", fmt.Errorf("cannot parse delete predicate: %s", query)
	}
	return strings.TrimSpace(rest[:whereIdx]), col, nil
}

type selectStmt struct {
	table string
	cols  []string
	where string
}

func parseSelect(query string) (selectStmt, error) {
	lower := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(lower, "select ") {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	fromIdx := strings.Index(lower, " from ")
	if fromIdx == -1 {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	rest := strings.Fields(lower[fromIdx+len(" from "):])
	if len(rest) == 0 {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	stmt := selectStmt{table: rest[0], cols: splitColumns(lower[len("select "):fromIdx])}
	if whereIdx := strings.Index(lower, " where "); whereIdx != -1 {
		col, err := equalityColumn(lower[whereIdx+len(" where "):])
		if err != nil {
			return selectStmt{}, fmt.Errorf("cannot parse select predicate: %s", query)
		}
		stmt.where = col
	}
	return stmt, nil
}

// equalityColumn extracts col from a `col=$1` predicate.
func equalityColumn(where string) (string, error) {
	parts := strings.SplitN(where, "=", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("unsupported predicate %q", where)
	}
	return strings.TrimSpace(parts[0]), nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
