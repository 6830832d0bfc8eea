// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/workline-foundation/workline/lib/notify"
	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/store"
	"github.com/workline-foundation/workline/lib/wferr"
)

// Reopen reverts a finished project to planned.
//
// Every pending task (todo, doing, or review) must receive a new due
// date through dueDates. If any pending task is missing one, the
// whole call fails with a ValidationError naming the undated tasks
// and nothing changes. On success, all pending tasks are redated, the
// project flips to planned with invoicing_incomplete cleared, exactly
// one reopening event is written, and the responsible owner plus
// every assignee of every redated task is notified. A partial
// reopening never commits.
func (l *Lifecycle) Reopen(ctx context.Context, projectID ref.ProjectID, actor ref.UserID, reason string, dueDates map[ref.TaskID]time.Time) error {
	var msgs []notify.Message
	err := l.store.Write(ctx, func(tx *store.Tx) error {
		project, err := l.mutableProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}
		if project.State != schema.ProjectFinished {
			return &wferr.ConflictError{
				Entity:   "project",
				ID:       projectID.String(),
				Expected: string(schema.ProjectFinished),
				Actual:   string(project.State),
			}
		}

		pending, err := tx.ListPendingTasks(projectID)
		if err != nil {
			return err
		}

		var missing []string
		for _, task := range pending {
			if _, ok := dueDates[task.ID]; !ok {
				missing = append(missing, task.Title)
			}
		}
		if len(missing) > 0 {
			return &wferr.ValidationError{
				Entity:  "project",
				ID:      projectID.String(),
				Reason:  "every pending task needs a new due date to reopen",
				Missing: missing,
			}
		}

		now := l.clock.Now()
		for _, task := range pending {
			due := dueDates[task.ID]
			task.DueDate = &due
			task.UpdatedAt = now
			if err := tx.UpdateTask(task); err != nil {
				return err
			}
			for _, assignee := range task.Assignees {
				msgs = append(msgs, notify.Message{
					To:      assignee,
					Subject: fmt.Sprintf("Task %q rescheduled", task.Title),
					Body: fmt.Sprintf("Project %q reopened; %q is now due %s.",
						project.Name, task.Title, due.Format(time.DateOnly)),
					Link: l.link("tasks", task.ID.String()),
				})
			}
		}

		project.State = schema.ProjectPlanned
		project.InvoicingIncomplete = false
		project.UpdatedAt = now
		if err := tx.UpdateProject(project); err != nil {
			return err
		}

		description := fmt.Sprintf("Project %q reopened (%s), %d tasks rescheduled",
			project.Name, reason, len(pending))
		if err := l.trail.RecordTx(tx, projectID, schema.EventReopening, actor, description); err != nil {
			return err
		}

		msgs = append(msgs, l.notifyResponsible(project, actor,
			fmt.Sprintf("Project %q reopened", project.Name), description)...)
		return nil
	})
	if err != nil {
		// Nothing committed; drop the collected messages with it.
		return err
	}
	l.notifier.Send(ctx, msgs...)
	return nil
}
