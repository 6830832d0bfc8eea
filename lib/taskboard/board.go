// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package taskboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/audit"
	"github.com/workline-foundation/workline/lib/authorization"
	"github.com/workline-foundation/workline/lib/clock"
	"github.com/workline-foundation/workline/lib/notify"
	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/store"
	"github.com/workline-foundation/workline/lib/wferr"
)

// Config holds the dependencies of a Board.
type Config struct {
	Store    *store.Store
	Trail    *audit.Trail
	Checker  authorization.Checker
	Notifier *notify.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger

	// LinkBase, when set, prefixes the deep links carried by
	// notifications ("https://workline.example.com").
	LinkBase string
}

// Board exposes the task workflow operations.
type Board struct {
	store    *store.Store
	trail    *audit.Trail
	checker  authorization.Checker
	notifier *notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	linkBase string
}

// New assembles a Board. Store, Trail, and Checker are required;
// Clock defaults to the real clock and Logger to a no-op logger.
func New(cfg Config) *Board {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Board{
		store:    cfg.Store,
		trail:    cfg.Trail,
		checker:  cfg.Checker,
		notifier: cfg.Notifier,
		clock:    clk,
		logger:   logger,
		linkBase: cfg.LinkBase,
	}
}

// CreateTaskParams are the fields of a new task. State is always
// todo; it is not a parameter.
type CreateTaskParams struct {
	ProjectID      ref.ProjectID
	Title          string
	Description    string
	Priority       schema.Priority
	Assignees      []ref.UserID
	DueDate        *time.Time
	EstimatedHours *decimal.Decimal
}

// CreateTask creates a task in state todo. The actor must hold
// manage_projects or be the project's responsible owner. Each initial
// assignee other than the actor is notified.
func (b *Board) CreateTask(ctx context.Context, params CreateTaskParams, actor ref.UserID) (*schema.Task, error) {
	if params.Title == "" {
		return nil, &wferr.ValidationError{Entity: "task", Reason: "title is required"}
	}
	priority := params.Priority
	if priority == "" {
		priority = schema.PriorityMedium
	}

	now := b.clock.Now()
	task := &schema.Task{
		ID:             ref.NewTaskID(),
		ProjectID:      params.ProjectID,
		Title:          params.Title,
		Description:    params.Description,
		State:          schema.TaskTodo,
		Priority:       priority,
		Assignees:      params.Assignees,
		DueDate:        params.DueDate,
		EstimatedHours: params.EstimatedHours,
		CreatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var msgs []notify.Message
	err := b.store.Write(ctx, func(tx *store.Tx) error {
		project, err := b.mutableProject(tx, params.ProjectID)
		if err != nil {
			return err
		}
		if err := b.requireManage(project, actor); err != nil {
			return err
		}

		if err := tx.InsertTask(task); err != nil {
			return err
		}
		description := fmt.Sprintf("Task %q created", task.Title)
		if err := b.trail.RecordTx(tx, project.ID, schema.EventTaskStateChange, actor, description); err != nil {
			return err
		}

		for _, assignee := range task.Assignees {
			if assignee == actor {
				continue
			}
			msgs = append(msgs, notify.Message{
				To:      assignee,
				Subject: fmt.Sprintf("Assigned to task %q", task.Title),
				Body:    fmt.Sprintf("You were assigned to %q in project %q.", task.Title, project.Name),
				Link:    b.link("tasks", task.ID.String()),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.notifier.Send(ctx, msgs...)
	return task, nil
}

// Claim collapses a multi-assignee task's assignee set to the actor
// alone. Claiming a task the actor is already the sole assignee of is
// a no-op success; claiming a task the actor is not assigned to is a
// conflict. Claim changes no task state and records no audit event.
func (b *Board) Claim(ctx context.Context, taskID ref.TaskID, actor ref.UserID) error {
	return b.store.Write(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		if _, err := b.mutableProject(tx, task.ProjectID); err != nil {
			return err
		}

		if !task.IsAssigned(actor) {
			return &wferr.ConflictError{
				Entity: "task",
				ID:     taskID.String(),
				Reason: fmt.Sprintf("%s is not assigned", actor),
			}
		}
		if len(task.Assignees) == 1 {
			return nil
		}

		task.Assignees = []ref.UserID{actor}
		task.UpdatedAt = b.clock.Now()
		return tx.UpdateTask(task)
	})
}

// Start moves a todo task to doing and collapses its assignees to the
// actor. The actor must be an assignee or hold manage_projects. A
// task no longer in todo by commit time is a conflict.
func (b *Board) Start(ctx context.Context, taskID ref.TaskID, actor ref.UserID) error {
	var msgs []notify.Message
	err := b.store.Write(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		project, err := b.mutableProject(tx, task.ProjectID)
		if err != nil {
			return err
		}

		if task.State != schema.TaskTodo {
			return &wferr.ConflictError{
				Entity:   "task",
				ID:       taskID.String(),
				Expected: string(schema.TaskTodo),
				Actual:   string(task.State),
			}
		}
		if !task.IsAssigned(actor) && !b.checker.HasCapability(actor, authorization.CapManageProjects, project.ID) {
			return &wferr.PermissionError{
				Actor:      actor.String(),
				Capability: "assignee",
				Entity:     "task",
				ID:         taskID.String(),
			}
		}

		task.State = schema.TaskDoing
		task.Assignees = []ref.UserID{actor}
		task.UpdatedAt = b.clock.Now()
		if err := tx.UpdateTask(task); err != nil {
			return err
		}

		description := fmt.Sprintf("Task %q: todo to doing", task.Title)
		if err := b.trail.RecordTx(tx, project.ID, schema.EventTaskStateChange, actor, description); err != nil {
			return err
		}

		msgs = b.notifyResponsible(project, actor,
			fmt.Sprintf("Task %q started", task.Title),
			fmt.Sprintf("%s started %q in project %q.", actor, task.Title, project.Name),
			task.ID)
		return nil
	})
	if err != nil {
		return err
	}
	b.notifier.Send(ctx, msgs...)
	return nil
}

// Finish moves a doing task to review. Only an assignee may finish;
// there is no management bypass. A task no longer in doing by commit
// time is a conflict.
func (b *Board) Finish(ctx context.Context, taskID ref.TaskID, actor ref.UserID) error {
	var msgs []notify.Message
	err := b.store.Write(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		project, err := b.mutableProject(tx, task.ProjectID)
		if err != nil {
			return err
		}

		if task.State != schema.TaskDoing {
			return &wferr.ConflictError{
				Entity:   "task",
				ID:       taskID.String(),
				Expected: string(schema.TaskDoing),
				Actual:   string(task.State),
			}
		}
		if !task.IsAssigned(actor) {
			return &wferr.PermissionError{
				Actor:      actor.String(),
				Capability: "assignee",
				Entity:     "task",
				ID:         taskID.String(),
			}
		}

		task.State = schema.TaskReview
		task.UpdatedAt = b.clock.Now()
		if err := tx.UpdateTask(task); err != nil {
			return err
		}

		description := fmt.Sprintf("Task %q: doing to review", task.Title)
		if err := b.trail.RecordTx(tx, project.ID, schema.EventTaskStateChange, actor, description); err != nil {
			return err
		}

		msgs = b.notifyResponsible(project, actor,
			fmt.Sprintf("Task %q ready for review", task.Title),
			fmt.Sprintf("%s finished %q in project %q.", actor, task.Title, project.Name),
			task.ID)
		return nil
	})
	if err != nil {
		return err
	}
	b.notifier.Send(ctx, msgs...)
	return nil
}

// ChangeState is the privileged direct transition among the four task
// states, available to actors with manage_projects or the project's
// responsible owner. Every change is audited as old to new and every
// current assignee plus the responsible owner is notified.
func (b *Board) ChangeState(ctx context.Context, taskID ref.TaskID, newState schema.TaskState, actor ref.UserID) error {
	if _, err := schema.ParseTaskState(string(newState)); err != nil {
		return &wferr.ValidationError{Entity: "task", ID: taskID.String(), Reason: err.Error()}
	}

	var msgs []notify.Message
	err := b.store.Write(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		project, err := b.mutableProject(tx, task.ProjectID)
		if err != nil {
			return err
		}
		if err := b.requireManage(project, actor); err != nil {
			return err
		}

		oldState := task.State
		task.State = newState
		task.UpdatedAt = b.clock.Now()
		if err := tx.UpdateTask(task); err != nil {
			return err
		}

		description := fmt.Sprintf("Task %q: %s to %s", task.Title, oldState, newState)
		if err := b.trail.RecordTx(tx, project.ID, schema.EventTaskStateChange, actor, description); err != nil {
			return err
		}

		subject := fmt.Sprintf("Task %q moved to %s", task.Title, newState)
		body := fmt.Sprintf("%s moved %q from %s to %s.", actor, task.Title, oldState, newState)
		seen := map[ref.UserID]bool{}
		for _, assignee := range task.Assignees {
			if seen[assignee] {
				continue
			}
			seen[assignee] = true
			msgs = append(msgs, notify.Message{
				To: assignee, Subject: subject, Body: body,
				Link: b.link("tasks", task.ID.String()),
			})
		}
		if !project.Responsible.IsZero() && !seen[project.Responsible] {
			msgs = append(msgs, notify.Message{
				To: project.Responsible, Subject: subject, Body: body,
				Link: b.link("tasks", task.ID.String()),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.notifier.Send(ctx, msgs...)
	return nil
}

// Delete removes a task permanently. The audit event stays under the
// owning project and is the deletion's only remaining trace.
func (b *Board) Delete(ctx context.Context, taskID ref.TaskID, actor ref.UserID) error {
	return b.store.Write(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}
		project, err := b.mutableProject(tx, task.ProjectID)
		if err != nil {
			return err
		}
		if err := b.requireManage(project, actor); err != nil {
			return err
		}

		if err := tx.DeleteTask(taskID); err != nil {
			return err
		}
		description := fmt.Sprintf("Task %q deleted", task.Title)
		return b.trail.RecordTx(tx, project.ID, schema.EventTaskStateChange, actor, description)
	})
}

// DueSoon lists pending tasks of in-progress projects whose due date
// falls within the window. Read-only; recording a reminder for one of
// them is a separate, explicit call.
func (b *Board) DueSoon(ctx context.Context, within time.Duration) ([]*schema.Task, error) {
	now := b.clock.Now()
	var due []*schema.Task
	err := b.store.Read(ctx, func(tx *store.Tx) error {
		candidates, err := tx.ListDueSoon(now, now.Add(within))
		if err != nil {
			return err
		}
		projectState := map[ref.ProjectID]schema.ProjectState{}
		for _, task := range candidates {
			state, ok := projectState[task.ProjectID]
			if !ok {
				project, err := tx.GetProject(task.ProjectID)
				if err != nil {
					return err
				}
				state = project.State
				projectState[task.ProjectID] = state
			}
			if state == schema.ProjectInProgress {
				due = append(due, task)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}

// RecordReminder writes a reminder event for a task under its project
// and notifies the task's assignees. The actor is the system, not a
// user; the event carries no acting user.
func (b *Board) RecordReminder(ctx context.Context, taskID ref.TaskID) error {
	var msgs []notify.Message
	err := b.store.Write(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(taskID)
		if err != nil {
			return err
		}

		description := fmt.Sprintf("Reminder: task %q", task.Title)
		if task.DueDate != nil {
			description = fmt.Sprintf("Reminder: task %q due %s", task.Title, task.DueDate.Format(time.DateOnly))
		}
		if err := b.trail.RecordTx(tx, task.ProjectID, schema.EventReminder, ref.UserID{}, description); err != nil {
			return err
		}

		for _, assignee := range task.Assignees {
			msgs = append(msgs, notify.Message{
				To:      assignee,
				Subject: fmt.Sprintf("Task %q is due soon", task.Title),
				Body:    description,
				Link:    b.link("tasks", task.ID.String()),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.notifier.Send(ctx, msgs...)
	return nil
}

// mutableProject loads a project and rejects mutation of archived
// ones.
func (b *Board) mutableProject(tx *store.Tx, id ref.ProjectID) (*schema.Project, error) {
	project, err := tx.GetProject(id)
	if err != nil {
		return nil, err
	}
	if project.Archived {
		return nil, &wferr.ConflictError{
			Entity: "project",
			ID:     id.String(),
			Reason: "project is archived",
		}
	}
	return project, nil
}

// requireManage passes for actors with manage_projects or the
// project's responsible owner.
func (b *Board) requireManage(project *schema.Project, actor ref.UserID) error {
	if b.checker.HasCapability(actor, authorization.CapManageProjects, project.ID) {
		return nil
	}
	if project.IsResponsible(actor) {
		return nil
	}
	return &wferr.PermissionError{
		Actor:      actor.String(),
		Capability: string(authorization.CapManageProjects),
		Entity:     "project",
		ID:         project.ID.String(),
	}
}

func (b *Board) notifyResponsible(project *schema.Project, actor ref.UserID, subject, body string, taskID ref.TaskID) []notify.Message {
	if project.Responsible.IsZero() || project.Responsible == actor {
		return nil
	}
	return []notify.Message{{
		To:      project.Responsible,
		Subject: subject,
		Body:    body,
		Link:    b.link("tasks", taskID.String()),
	}}
}

func (b *Board) link(kind, id string) string {
	if b.linkBase == "" {
		return ""
	}
	return b.linkBase + "/" + kind + "/" + id
}
