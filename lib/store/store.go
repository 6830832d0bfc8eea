// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/workline-foundation/workline/lib/sqlitepool"
)

// ddl is the schema bootstrap script, applied to every connection
// via CREATE TABLE IF NOT EXISTS so it is idempotent.
//
// history_events has no foreign key on project_id: the audit trail
// must outlive whatever it describes and is never deleted.
const ddl = `
CREATE TABLE IF NOT EXISTS projects (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL,
	priority             TEXT NOT NULL,
	responsible          TEXT,
	start_date           TEXT,
	end_date             TEXT,
	budget_total         TEXT,
	invoicing_incomplete INTEGER NOT NULL DEFAULT 0,
	archived             INTEGER NOT NULL DEFAULT 0,
	created_by           TEXT,
	created_at           TEXT NOT NULL,
	updated_at           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_state ON projects (state);

CREATE TABLE IF NOT EXISTS project_members (
	project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	project_id      TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL,
	priority        TEXT NOT NULL,
	due_date        TEXT,
	estimated_hours TEXT,
	created_by      TEXT,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks (project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks (state);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks (due_date);

CREATE TABLE IF NOT EXISTS task_assignees (
	task_id TEXT NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS history_events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	description TEXT NOT NULL,
	actor       TEXT,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_project ON history_events (project_id, seq);

CREATE TABLE IF NOT EXISTS invoices (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
	number      TEXT NOT NULL,
	amount      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL,
	issued_on   TEXT NOT NULL,
	created_by  TEXT,
	created_at  TEXT NOT NULL,
	approved_by TEXT,
	approved_at TEXT,
	credited_by TEXT,
	credited_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_invoices_project ON invoices (project_id);
CREATE INDEX IF NOT EXISTS idx_invoices_state ON invoices (state);

CREATE TABLE IF NOT EXISTS work_hour_entries (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	project_id  TEXT,
	task_id     TEXT,
	entry_date  TEXT NOT NULL,
	hours       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	billable    INTEGER NOT NULL DEFAULT 0,
	state       TEXT NOT NULL,
	decided_by  TEXT,
	decided_at  TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hours_user ON work_hour_entries (user_id);
CREATE INDEX IF NOT EXISTS idx_hours_project ON work_hour_entries (project_id);
CREATE INDEX IF NOT EXISTS idx_hours_state ON work_hour_entries (state);
`

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the SQLite database file path. Required.
	Path string

	// PoolSize is the connection pool size. Zero means the pool
	// default.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Store is the transactional persistence layer for projects, tasks,
// history events, invoices, and work-hour entries.
//
// Store is safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at cfg.Path and
// bootstraps the schema. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, ddl, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Tx is a handle on one transaction. All entity accessors hang off
// Tx so that a workflow operation's guard checks, writes, and audit
// append share a single atomic unit.
//
// A Tx is only valid inside the Read or Write callback that produced
// it and must not escape.
type Tx struct {
	conn *sqlite.Conn
}

// Write runs fn inside a BEGIN IMMEDIATE transaction. If fn returns
// an error the transaction rolls back and the error is returned
// unchanged; otherwise the transaction commits.
func (s *Store) Write(ctx context.Context, fn func(tx *Tx) error) error {
	return s.transact(ctx, "BEGIN IMMEDIATE", fn)
}

// Read runs fn inside a deferred read transaction, giving all reads
// in fn one consistent snapshot of the database.
func (s *Store) Read(ctx context.Context, fn func(tx *Tx) error) error {
	return s.transact(ctx, "BEGIN DEFERRED", fn)
}

func (s *Store) transact(ctx context.Context, begin string, fn func(tx *Tx) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	if err := sqlitex.ExecuteTransient(conn, begin, nil); err != nil {
		return fmt.Errorf("store: %s: %w", begin, err)
	}

	if err := fn(&Tx{conn: conn}); err != nil {
		if rollbackErr := sqlitex.ExecuteTransient(conn, "ROLLBACK", nil); rollbackErr != nil {
			s.logger.Error("transaction rollback failed", "error", rollbackErr)
		}
		return err
	}

	if err := sqlitex.ExecuteTransient(conn, "COMMIT", nil); err != nil {
		return fmt.Errorf("store: COMMIT: %w", err)
	}
	return nil
}

// --- Column encoding helpers ---

// formatTime encodes a timestamp as RFC 3339 text in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: malformed timestamp %q: %w", raw, err)
	}
	return t, nil
}

// formatDate encodes a calendar date as YYYY-MM-DD text.
func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: malformed date %q: %w", raw, err)
	}
	return t, nil
}

// boolToInt encodes a boolean flag column.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// textOrNull returns the string for non-empty values and nil for
// empty ones, so optional columns store NULL instead of "".
func textOrNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// columnTextOrEmpty reads a nullable text column, mapping NULL to "".
func columnTextOrEmpty(stmt *sqlite.Stmt, col int) string {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return ""
	}
	return stmt.ColumnText(col)
}
