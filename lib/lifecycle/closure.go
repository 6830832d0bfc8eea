// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/notify"
	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/store"
	"github.com/workline-foundation/workline/lib/wferr"
)

// ClosureResult reports how a close resolved.
type ClosureResult struct {
	// Incomplete is true when the project finished under budget and
	// the caller supplied a justification.
	Incomplete bool

	// InvoicedTotal is the sum the decision was made on. It covers
	// invoices in every state, including merely loaded ones.
	InvoicedTotal decimal.Decimal
}

// AttemptClose finishes a project, reconciling the invoiced total
// against the budget.
//
// When the budget is set and the invoiced total falls short, the
// closure is incomplete: it demands a non-empty reason and marks the
// project invoicing_incomplete. Without a reason the whole call fails
// with ValidationError and nothing changes; the expected flow is one
// probing call that surfaces the error and a second call carrying the
// justification. A complete closure (total covers budget, or no
// budget set) ignores reason entirely.
//
// The total is computed inside the same transaction as the write, so
// the committed state always matches the branch taken.
func (l *Lifecycle) AttemptClose(ctx context.Context, projectID ref.ProjectID, actor ref.UserID, reason string) (*ClosureResult, error) {
	var (
		result ClosureResult
		msgs   []notify.Message
	)
	err := l.store.Write(ctx, func(tx *store.Tx) error {
		project, err := l.mutableProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}
		if project.State == schema.ProjectFinished {
			return &wferr.ConflictError{
				Entity: "project",
				ID:     projectID.String(),
				Reason: "project is already finished",
			}
		}

		total, err := tx.InvoicedTotal(projectID)
		if err != nil {
			return err
		}
		result.InvoicedTotal = total
		result.Incomplete = project.BudgetTotal != nil && total.LessThan(*project.BudgetTotal)

		if result.Incomplete && reason == "" {
			return &wferr.ValidationError{
				Entity: "project",
				ID:     projectID.String(),
				Reason: fmt.Sprintf("invoiced %s of %s budget; a reason is required to close incompletely",
					total, project.BudgetTotal),
			}
		}

		project.State = schema.ProjectFinished
		project.InvoicingIncomplete = result.Incomplete
		project.UpdatedAt = l.clock.Now()
		if err := tx.UpdateProject(project); err != nil {
			return err
		}

		if result.Incomplete {
			description := fmt.Sprintf("Project %q closed with %s of %s invoiced: %s",
				project.Name, total, project.BudgetTotal, reason)
			if err := l.trail.RecordTx(tx, projectID, schema.EventIncompleteClosure, actor, description); err != nil {
				return err
			}
			msgs = l.notifyResponsible(project, actor,
				fmt.Sprintf("Project %q closed under budget", project.Name),
				description)
		} else {
			description := fmt.Sprintf("Project %q closed", project.Name)
			if err := l.trail.RecordTx(tx, projectID, schema.EventClosure, actor, description); err != nil {
				return err
			}
			msgs = l.notifyResponsible(project, actor,
				fmt.Sprintf("Project %q closed", project.Name),
				fmt.Sprintf("%s closed %q with %s invoiced.", actor, project.Name, total))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.notifier.Send(ctx, msgs...)
	return &result, nil
}
