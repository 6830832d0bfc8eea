// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
)

// AppendHistory appends one event to the audit trail and fills in its
// storage-assigned sequence number. Events are immutable once
// written; no update or delete exists.
func (tx *Tx) AppendHistory(ev *schema.HistoryEvent) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO history_events (project_id, kind, description, actor, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			ev.ProjectID.String(), string(ev.Kind), ev.Description,
			textOrNull(ev.Actor.String()), formatTime(ev.CreatedAt),
		}})
	if err != nil {
		return fmt.Errorf("store: appending history for %s: %w", ev.ProjectID, err)
	}
	ev.Seq = tx.conn.LastInsertRowID()
	return nil
}

// ListHistory returns a project's audit trail, newest first. The
// trail is keyed by project ID alone, so events survive the deletion
// of the tasks and invoices they describe.
func (tx *Tx) ListHistory(projectID ref.ProjectID) ([]*schema.HistoryEvent, error) {
	var events []*schema.HistoryEvent
	err := sqlitex.Execute(tx.conn, `
		SELECT seq, project_id, kind, description, actor, created_at
		FROM history_events WHERE project_id = ? ORDER BY seq DESC`,
		&sqlitex.ExecOptions{
			Args: []any{projectID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ev, err := scanHistoryEvent(stmt)
				if err != nil {
					return err
				}
				events = append(events, ev)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: listing history for %s: %w", projectID, err)
	}
	return events, nil
}

func scanHistoryEvent(stmt *sqlite.Stmt) (*schema.HistoryEvent, error) {
	projectID, err := ref.ParseProjectID(stmt.ColumnText(1))
	if err != nil {
		return nil, err
	}
	kind, err := schema.ParseEventKind(stmt.ColumnText(2))
	if err != nil {
		return nil, err
	}

	ev := &schema.HistoryEvent{
		Seq:         stmt.ColumnInt64(0),
		ProjectID:   projectID,
		Kind:        kind,
		Description: stmt.ColumnText(3),
	}
	if raw := columnTextOrEmpty(stmt, 4); raw != "" {
		if ev.Actor, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if ev.CreatedAt, err = parseTime(stmt.ColumnText(5)); err != nil {
		return nil, err
	}
	return ev, nil
}
