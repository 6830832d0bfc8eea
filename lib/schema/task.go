// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/ref"
)

// TaskState is the board state of a task.
type TaskState string

const (
	TaskTodo   TaskState = "todo"
	TaskDoing  TaskState = "doing"
	TaskReview TaskState = "review"
	TaskDone   TaskState = "done"
)

// ParseTaskState validates a raw task state string.
func ParseTaskState(raw string) (TaskState, error) {
	switch state := TaskState(raw); state {
	case TaskTodo, TaskDoing, TaskReview, TaskDone:
		return state, nil
	default:
		return "", fmt.Errorf("unknown task state %q", raw)
	}
}

// IsPending reports whether the state counts as pending work: todo,
// doing, or review. Pending tasks are the ones a reopening must
// supply fresh due dates for.
func (s TaskState) IsPending() bool {
	return s == TaskTodo || s == TaskDoing || s == TaskReview
}

// Task is a unit of work inside a project. Tasks are hard-deleted
// (unlike projects); the deletion leaves an audit event under the
// owning project as its only trace.
type Task struct {
	ID        ref.TaskID    `cbor:"id"`
	ProjectID ref.ProjectID `cbor:"project_id"`

	Title       string    `cbor:"title"`
	Description string    `cbor:"description,omitempty"`
	State       TaskState `cbor:"state"`
	Priority    Priority  `cbor:"priority"`

	// Assignees is the set of users assigned to the task, zero or
	// more. The guarded start transition always collapses it to
	// exactly one user; claim lets one of several assignees collapse
	// it without changing state.
	Assignees []ref.UserID `cbor:"assignees,omitempty"`

	DueDate        *time.Time       `cbor:"due_date,omitempty"`
	EstimatedHours *decimal.Decimal `cbor:"estimated_hours,omitempty"`

	CreatedBy ref.UserID `cbor:"created_by,omitempty"`
	CreatedAt time.Time  `cbor:"created_at"`
	UpdatedAt time.Time  `cbor:"updated_at"`
}

// IsAssigned reports whether the user is in the task's assignee set.
func (t *Task) IsAssigned(user ref.UserID) bool {
	for _, assignee := range t.Assignees {
		if assignee == user {
			return true
		}
	}
	return false
}
