// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/wferr"
)

const taskColumns = `id, project_id, title, description, state, priority,
	due_date, estimated_hours, created_by, created_at, updated_at`

// InsertTask stores a new task and its assignee set.
func (tx *Tx) InsertTask(t *schema.Task) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: taskArgs(t)})
	if err != nil {
		return fmt.Errorf("store: inserting task %s: %w", t.ID, err)
	}
	return tx.replaceTaskAssignees(t.ID, t.Assignees)
}

// UpdateTask overwrites every mutable column of an existing task,
// including the assignee set.
func (tx *Tx) UpdateTask(t *schema.Task) error {
	err := sqlitex.Execute(tx.conn, `
		UPDATE tasks SET
			project_id = ?2, title = ?3, description = ?4, state = ?5,
			priority = ?6, due_date = ?7, estimated_hours = ?8,
			created_by = ?9, created_at = ?10, updated_at = ?11
		WHERE id = ?1`,
		&sqlitex.ExecOptions{Args: taskArgs(t)})
	if err != nil {
		return fmt.Errorf("store: updating task %s: %w", t.ID, err)
	}
	if tx.conn.Changes() == 0 {
		return &wferr.NotFoundError{Entity: "task", ID: t.ID.String()}
	}
	return tx.replaceTaskAssignees(t.ID, t.Assignees)
}

// GetTask loads one task with its assignee set.
func (tx *Tx) GetTask(id ref.TaskID) (*schema.Task, error) {
	var task *schema.Task
	err := sqlitex.Execute(tx.conn, `
		SELECT `+taskColumns+` FROM tasks WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				t, err := scanTask(stmt)
				if err != nil {
					return err
				}
				task = t
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading task %s: %w", id, err)
	}
	if task == nil {
		return nil, &wferr.NotFoundError{Entity: "task", ID: id.String()}
	}

	assignees, err := tx.taskAssignees(id)
	if err != nil {
		return nil, err
	}
	task.Assignees = assignees
	return task, nil
}

// DeleteTask removes a task permanently. The assignee rows cascade.
func (tx *Tx) DeleteTask(id ref.TaskID) error {
	err := sqlitex.Execute(tx.conn, `DELETE FROM tasks WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id.String()}})
	if err != nil {
		return fmt.Errorf("store: deleting task %s: %w", id, err)
	}
	if tx.conn.Changes() == 0 {
		return &wferr.NotFoundError{Entity: "task", ID: id.String()}
	}
	return nil
}

// ListTasksByProject returns all of a project's tasks, ordered by
// creation time.
func (tx *Tx) ListTasksByProject(projectID ref.ProjectID) ([]*schema.Task, error) {
	return tx.listTasks(`
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ? ORDER BY created_at, id`,
		[]any{projectID.String()})
}

// ListPendingTasks returns the project's tasks in a pending state
// (todo, doing, or review), ordered by creation time.
func (tx *Tx) ListPendingTasks(projectID ref.ProjectID) ([]*schema.Task, error) {
	return tx.listTasks(`
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ? AND state IN ('todo', 'doing', 'review')
		ORDER BY created_at, id`,
		[]any{projectID.String()})
}

// ListDueSoon returns pending tasks across all projects whose due
// date falls within [from, to], ordered by due date.
func (tx *Tx) ListDueSoon(from, to time.Time) ([]*schema.Task, error) {
	return tx.listTasks(`
		SELECT `+taskColumns+` FROM tasks
		WHERE state IN ('todo', 'doing', 'review')
		  AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ?
		ORDER BY due_date, id`,
		[]any{formatDate(from), formatDate(to)})
}

func (tx *Tx) listTasks(query string, args []any) ([]*schema.Task, error) {
	var tasks []*schema.Task
	err := sqlitex.Execute(tx.conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			t, err := scanTask(stmt)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: listing tasks: %w", err)
	}
	for _, t := range tasks {
		assignees, err := tx.taskAssignees(t.ID)
		if err != nil {
			return nil, err
		}
		t.Assignees = assignees
	}
	return tasks, nil
}

func taskArgs(t *schema.Task) []any {
	var dueDate, estimate any
	if t.DueDate != nil {
		dueDate = formatDate(*t.DueDate)
	}
	if t.EstimatedHours != nil {
		estimate = t.EstimatedHours.String()
	}
	return []any{
		t.ID.String(), t.ProjectID.String(), t.Title, t.Description,
		string(t.State), string(t.Priority), dueDate, estimate,
		textOrNull(t.CreatedBy.String()), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	}
}

func scanTask(stmt *sqlite.Stmt) (*schema.Task, error) {
	id, err := ref.ParseTaskID(stmt.ColumnText(0))
	if err != nil {
		return nil, err
	}
	projectID, err := ref.ParseProjectID(stmt.ColumnText(1))
	if err != nil {
		return nil, err
	}
	state, err := schema.ParseTaskState(stmt.ColumnText(4))
	if err != nil {
		return nil, err
	}
	priority, err := schema.ParsePriority(stmt.ColumnText(5))
	if err != nil {
		return nil, err
	}

	t := &schema.Task{
		ID:          id,
		ProjectID:   projectID,
		Title:       stmt.ColumnText(2),
		Description: stmt.ColumnText(3),
		State:       state,
		Priority:    priority,
	}

	if raw := columnTextOrEmpty(stmt, 6); raw != "" {
		due, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		t.DueDate = &due
	}
	if raw := columnTextOrEmpty(stmt, 7); raw != "" {
		estimate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("store: malformed estimate %q: %w", raw, err)
		}
		t.EstimatedHours = &estimate
	}
	if raw := columnTextOrEmpty(stmt, 8); raw != "" {
		if t.CreatedBy, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if t.CreatedAt, err = parseTime(stmt.ColumnText(9)); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(stmt.ColumnText(10)); err != nil {
		return nil, err
	}
	return t, nil
}

func (tx *Tx) replaceTaskAssignees(id ref.TaskID, assignees []ref.UserID) error {
	err := sqlitex.Execute(tx.conn,
		`DELETE FROM task_assignees WHERE task_id = ?`,
		&sqlitex.ExecOptions{Args: []any{id.String()}})
	if err != nil {
		return fmt.Errorf("store: clearing assignees of %s: %w", id, err)
	}
	for _, assignee := range assignees {
		err := sqlitex.Execute(tx.conn,
			`INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`,
			&sqlitex.ExecOptions{Args: []any{id.String(), assignee.String()}})
		if err != nil {
			return fmt.Errorf("store: adding assignee %s to %s: %w", assignee, id, err)
		}
	}
	return nil
}

func (tx *Tx) taskAssignees(id ref.TaskID) ([]ref.UserID, error) {
	var assignees []ref.UserID
	err := sqlitex.Execute(tx.conn, `
		SELECT user_id FROM task_assignees
		WHERE task_id = ? ORDER BY user_id`,
		&sqlitex.ExecOptions{
			Args: []any{id.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				assignee, err := ref.ParseUserID(stmt.ColumnText(0))
				if err != nil {
					return err
				}
				assignees = append(assignees, assignee)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading assignees of %s: %w", id, err)
	}
	return assignees, nil
}
