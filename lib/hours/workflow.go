// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package hours

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

// timeOfDay is the layout for start and end times.
const timeOfDay = "15:04"

// Config holds the dependencies of a Workflow.
type Config struct {
	Store    *store.Store
	Trail    *audit.Trail
	Checker  authorization.Checker
	Notifier *notify.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Workflow exposes the work-hour entry operations.
type Workflow struct {
	store    *store.Store
	trail    *audit.Trail
	checker  authorization.Checker
	notifier *notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// New assembles a Workflow. Store, Trail, and Checker are required;
// Clock defaults to the real clock and Logger to a no-op logger.
func New(cfg Config) *Workflow {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Workflow{
		store:    cfg.Store,
		trail:    cfg.Trail,
		checker:  cfg.Checker,
		notifier: cfg.Notifier,
		clock:    clk,
		logger:   logger,
	}
}

// SubmitParams are the fields of a new work-hour entry. The duration
// comes either from Start and End (both in "15:04" form) or directly
// from Hours; giving both forms, or neither, is a validation error.
type SubmitParams struct {
	User      ref.UserID
	ProjectID ref.ProjectID
	TaskID    ref.TaskID
	Date      time.Time

	Start string
	End   string
	Hours *decimal.Decimal

	Description string
	Billable    bool
}

// Submit creates an entry in state loaded. The duration must be
// strictly positive; it is rounded to two decimal places.
func (w *Workflow) Submit(ctx context.Context, params SubmitParams) (*schema.WorkHourEntry, error) {
	if params.User.IsZero() {
		return nil, &wferr.ValidationError{Entity: "work-hour entry", Reason: "user is required"}
	}
	if params.Date.IsZero() {
		return nil, &wferr.ValidationError{Entity: "work-hour entry", Reason: "date is required"}
	}

	worked, err := deriveHours(params)
	if err != nil {
		return nil, err
	}

	now := w.clock.Now()
	entry := &schema.WorkHourEntry{
		ID:          ref.NewWorkEntryID(),
		User:        params.User,
		ProjectID:   params.ProjectID,
		TaskID:      params.TaskID,
		Date:        params.Date,
		Hours:       worked,
		Description: params.Description,
		Billable:    params.Billable,
		State:       schema.WorkEntryLoaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = w.store.Write(ctx, func(tx *store.Tx) error {
		if !params.ProjectID.IsZero() {
			project, err := tx.GetProject(params.ProjectID)
			if err != nil {
				return err
			}
			if project.Archived {
				return &wferr.ConflictError{
					Entity: "project",
					ID:     project.ID.String(),
					Reason: "project is archived",
				}
			}
		}
		if !params.TaskID.IsZero() {
			if _, err := tx.GetTask(params.TaskID); err != nil {
				return err
			}
		}
		return tx.InsertWorkEntry(entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Approve moves a loaded entry to approved. Requires the
// approve_hours capability. When the entry is booked against a
// project, the decision leaves a budget-adjustment event in that
// project's trail. The submitter is notified.
func (w *Workflow) Approve(ctx context.Context, entryID ref.WorkEntryID, actor ref.UserID) error {
	return w.decide(ctx, entryID, actor, schema.WorkEntryApproved)
}

// Reject moves a loaded entry to rejected. Same guards as Approve.
func (w *Workflow) Reject(ctx context.Context, entryID ref.WorkEntryID, actor ref.UserID) error {
	return w.decide(ctx, entryID, actor, schema.WorkEntryRejected)
}

func (w *Workflow) decide(ctx context.Context, entryID ref.WorkEntryID, actor ref.UserID, verdict schema.WorkEntryState) error {
	var msgs []notify.Message
	err := w.store.Write(ctx, func(tx *store.Tx) error {
		entry, err := tx.GetWorkEntry(entryID)
		if err != nil {
			return err
		}
		if !w.checker.HasCapability(actor, authorization.CapApproveHours, entry.ProjectID) {
			return &wferr.PermissionError{
				Actor:      actor.String(),
				Capability: string(authorization.CapApproveHours),
				Entity:     "work-hour entry",
				ID:         entryID.String(),
			}
		}
		if entry.State != schema.WorkEntryLoaded {
			return &wferr.ConflictError{
				Entity:   "work-hour entry",
				ID:       entryID.String(),
				Expected: string(schema.WorkEntryLoaded),
				Actual:   string(entry.State),
			}
		}

		now := w.clock.Now()
		entry.State = verdict
		entry.DecidedBy = actor
		entry.DecidedAt = &now
		entry.UpdatedAt = now
		if err := tx.UpdateWorkEntry(entry); err != nil {
			return err
		}

		if !entry.ProjectID.IsZero() {
			description := fmt.Sprintf("%s %s hours of %s (%s)",
				verdictWord(verdict), entry.Hours, entry.User,
				entry.Date.Format(time.DateOnly))
			if err := w.trail.RecordTx(tx, entry.ProjectID, schema.EventBudgetAdjustment, actor, description); err != nil {
				return err
			}
		}

		msgs = append(msgs, notify.Message{
			To:      entry.User,
			Subject: fmt.Sprintf("Hours %s", verdictWord(verdict)),
			Body: fmt.Sprintf("%s %s your %s hours for %s.",
				actor, verdictWord(verdict), entry.Hours,
				entry.Date.Format(time.DateOnly)),
		})
		return nil
	})
	if err != nil {
		return err
	}
	w.notifier.Send(ctx, msgs...)
	return nil
}

// ListByUser returns a user's entries, oldest first.
func (w *Workflow) ListByUser(ctx context.Context, user ref.UserID) ([]*schema.WorkHourEntry, error) {
	var entries []*schema.WorkHourEntry
	err := w.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		entries, err = tx.ListWorkEntriesByUser(user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PendingQueue returns every undecided entry, oldest first. This is
// the approver's worklist.
func (w *Workflow) PendingQueue(ctx context.Context) ([]*schema.WorkHourEntry, error) {
	var entries []*schema.WorkHourEntry
	err := w.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		entries, err = tx.ListWorkEntriesByState(schema.WorkEntryLoaded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Summary totals a user's hours by approval state.
func (w *Workflow) Summary(ctx context.Context, user ref.UserID) (store.HoursSummary, error) {
	var summary store.HoursSummary
	err := w.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		summary, err = tx.SummarizeUserHours(user)
		return err
	})
	return summary, err
}

// deriveHours resolves the worked duration from SubmitParams.
func deriveHours(params SubmitParams) (decimal.Decimal, error) {
	hasRange := params.Start != "" || params.End != ""
	if hasRange && params.Hours != nil {
		return decimal.Zero, &wferr.ValidationError{
			Entity: "work-hour entry",
			Reason: "give either a start/end range or a duration, not both",
		}
	}

	if hasRange {
		if params.Start == "" || params.End == "" {
			return decimal.Zero, &wferr.ValidationError{
				Entity: "work-hour entry",
				Reason: "start and end must both be present",
			}
		}
		start, err := time.Parse(timeOfDay, params.Start)
		if err != nil {
			return decimal.Zero, &wferr.ValidationError{
				Entity: "work-hour entry",
				Reason: fmt.Sprintf("malformed start time %q", params.Start),
			}
		}
		end, err := time.Parse(timeOfDay, params.End)
		if err != nil {
			return decimal.Zero, &wferr.ValidationError{
				Entity: "work-hour entry",
				Reason: fmt.Sprintf("malformed end time %q", params.End),
			}
		}
		minutes := int64(end.Sub(start) / time.Minute)
		if minutes <= 0 {
			return decimal.Zero, &wferr.ValidationError{
				Entity: "work-hour entry",
				Reason: "end must be after start",
			}
		}
		return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)).Round(2), nil
	}

	if params.Hours == nil {
		return decimal.Zero, &wferr.ValidationError{
			Entity: "work-hour entry",
			Reason: "a start/end range or a duration is required",
		}
	}
	if !params.Hours.IsPositive() {
		return decimal.Zero, &wferr.ValidationError{
			Entity: "work-hour entry",
			Reason: fmt.Sprintf("duration %s is not positive", params.Hours),
		}
	}
	return params.Hours.Round(2), nil
}

func verdictWord(state schema.WorkEntryState) string {
	if state == schema.WorkEntryApproved {
		return "approved"
	}
	return "rejected"
}
