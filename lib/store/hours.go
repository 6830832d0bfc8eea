// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/shopspring/decimal"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/wferr"
)

const workEntryColumns = `id, user_id, project_id, task_id, entry_date, hours,
	description, billable, state, decided_by, decided_at, created_at, updated_at`

// InsertWorkEntry stores a new work-hour entry.
func (tx *Tx) InsertWorkEntry(e *schema.WorkHourEntry) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO work_hour_entries (`+workEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: workEntryArgs(e)})
	if err != nil {
		return fmt.Errorf("store: inserting work entry %s: %w", e.ID, err)
	}
	return nil
}

// UpdateWorkEntry overwrites every mutable column of an existing
// work-hour entry.
func (tx *Tx) UpdateWorkEntry(e *schema.WorkHourEntry) error {
	err := sqlitex.Execute(tx.conn, `
		UPDATE work_hour_entries SET
			user_id = ?2, project_id = ?3, task_id = ?4, entry_date = ?5,
			hours = ?6, description = ?7, billable = ?8, state = ?9,
			decided_by = ?10, decided_at = ?11, created_at = ?12, updated_at = ?13
		WHERE id = ?1`,
		&sqlitex.ExecOptions{Args: workEntryArgs(e)})
	if err != nil {
		return fmt.Errorf("store: updating work entry %s: %w", e.ID, err)
	}
	if tx.conn.Changes() == 0 {
		return &wferr.NotFoundError{Entity: "work-hour entry", ID: e.ID.String()}
	}
	return nil
}

// GetWorkEntry loads one work-hour entry.
func (tx *Tx) GetWorkEntry(id ref.WorkEntryID) (*schema.WorkHourEntry, error) {
	var entry *schema.WorkHourEntry
	err := sqlitex.Execute(tx.conn, `
		SELECT `+workEntryColumns+` FROM work_hour_entries WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				e, err := scanWorkEntry(stmt)
				if err != nil {
					return err
				}
				entry = e
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading work entry %s: %w", id, err)
	}
	if entry == nil {
		return nil, &wferr.NotFoundError{Entity: "work-hour entry", ID: id.String()}
	}
	return entry, nil
}

// ListWorkEntriesByUser returns all of a user's entries, ordered by
// entry date then creation time.
func (tx *Tx) ListWorkEntriesByUser(user ref.UserID) ([]*schema.WorkHourEntry, error) {
	return tx.listWorkEntries(`
		SELECT `+workEntryColumns+` FROM work_hour_entries
		WHERE user_id = ? ORDER BY entry_date, created_at, id`,
		[]any{user.String()})
}

// ListWorkEntriesByProject returns all entries booked against a
// project, ordered by entry date then creation time.
func (tx *Tx) ListWorkEntriesByProject(projectID ref.ProjectID) ([]*schema.WorkHourEntry, error) {
	return tx.listWorkEntries(`
		SELECT `+workEntryColumns+` FROM work_hour_entries
		WHERE project_id = ? ORDER BY entry_date, created_at, id`,
		[]any{projectID.String()})
}

// ListWorkEntriesByState returns all entries in the given approval
// state, ordered by entry date then creation time. Used to drive the
// approval queue.
func (tx *Tx) ListWorkEntriesByState(state schema.WorkEntryState) ([]*schema.WorkHourEntry, error) {
	return tx.listWorkEntries(`
		SELECT `+workEntryColumns+` FROM work_hour_entries
		WHERE state = ? ORDER BY entry_date, created_at, id`,
		[]any{string(state)})
}

func (tx *Tx) listWorkEntries(query string, args []any) ([]*schema.WorkHourEntry, error) {
	var entries []*schema.WorkHourEntry
	err := sqlitex.Execute(tx.conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			e, err := scanWorkEntry(stmt)
			if err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: listing work entries: %w", err)
	}
	return entries, nil
}

// HoursSummary aggregates a user's work-hour entries by approval
// state. Billable counts only approved billable hours.
type HoursSummary struct {
	Total    decimal.Decimal
	Approved decimal.Decimal
	Rejected decimal.Decimal
	Pending  decimal.Decimal
	Billable decimal.Decimal
}

// SummarizeUserHours totals a user's hours across all their entries.
func (tx *Tx) SummarizeUserHours(user ref.UserID) (HoursSummary, error) {
	summary := HoursSummary{
		Total:    decimal.Zero,
		Approved: decimal.Zero,
		Rejected: decimal.Zero,
		Pending:  decimal.Zero,
		Billable: decimal.Zero,
	}
	entries, err := tx.ListWorkEntriesByUser(user)
	if err != nil {
		return summary, err
	}
	for _, e := range entries {
		summary.Total = summary.Total.Add(e.Hours)
		switch e.State {
		case schema.WorkEntryApproved:
			summary.Approved = summary.Approved.Add(e.Hours)
			if e.Billable {
				summary.Billable = summary.Billable.Add(e.Hours)
			}
		case schema.WorkEntryRejected:
			summary.Rejected = summary.Rejected.Add(e.Hours)
		default:
			summary.Pending = summary.Pending.Add(e.Hours)
		}
	}
	return summary, nil
}

func workEntryArgs(e *schema.WorkHourEntry) []any {
	var decidedAt any
	if e.DecidedAt != nil {
		decidedAt = formatTime(*e.DecidedAt)
	}
	return []any{
		e.ID.String(), e.User.String(),
		textOrNull(e.ProjectID.String()), textOrNull(e.TaskID.String()),
		formatDate(e.Date), e.Hours.String(), e.Description,
		boolToInt(e.Billable), string(e.State),
		textOrNull(e.DecidedBy.String()), decidedAt,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	}
}

func scanWorkEntry(stmt *sqlite.Stmt) (*schema.WorkHourEntry, error) {
	id, err := ref.ParseWorkEntryID(stmt.ColumnText(0))
	if err != nil {
		return nil, err
	}
	user, err := ref.ParseUserID(stmt.ColumnText(1))
	if err != nil {
		return nil, err
	}
	hours, err := decimal.NewFromString(stmt.ColumnText(5))
	if err != nil {
		return nil, fmt.Errorf("store: malformed hours %q: %w", stmt.ColumnText(5), err)
	}
	state, err := schema.ParseWorkEntryState(stmt.ColumnText(8))
	if err != nil {
		return nil, err
	}

	e := &schema.WorkHourEntry{
		ID:          id,
		User:        user,
		Hours:       hours,
		Description: stmt.ColumnText(6),
		Billable:    stmt.ColumnInt64(7) != 0,
		State:       state,
	}
	if raw := columnTextOrEmpty(stmt, 2); raw != "" {
		if e.ProjectID, err = ref.ParseProjectID(raw); err != nil {
			return nil, err
		}
	}
	if raw := columnTextOrEmpty(stmt, 3); raw != "" {
		if e.TaskID, err = ref.ParseTaskID(raw); err != nil {
			return nil, err
		}
	}
	if e.Date, err = parseDate(stmt.ColumnText(4)); err != nil {
		return nil, err
	}
	if raw := columnTextOrEmpty(stmt, 9); raw != "" {
		if e.DecidedBy, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if raw := columnTextOrEmpty(stmt, 10); raw != "" {
		decidedAt, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		e.DecidedAt = &decidedAt
	}
	if e.CreatedAt, err = parseTime(stmt.ColumnText(11)); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(stmt.ColumnText(12)); err != nil {
		return nil, err
	}
	return e, nil
}
