// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/notify"
	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/store"
	"github.com/workline-foundation/workline/lib/wferr"
)

// RegisterInvoiceParams are the fields of a new invoice.
type RegisterInvoiceParams struct {
	ProjectID   ref.ProjectID
	Number      string
	Amount      decimal.Decimal
	Description string
	IssuedOn    time.Time
}

// RegisterInvoice loads a new invoice against a project. The amount
// counts toward the project's invoiced total immediately, before any
// approval.
func (l *Lifecycle) RegisterInvoice(ctx context.Context, params RegisterInvoiceParams, actor ref.UserID) (*schema.Invoice, error) {
	if params.Number == "" {
		return nil, &wferr.ValidationError{Entity: "invoice", Reason: "number is required"}
	}
	if !params.Amount.IsPositive() {
		return nil, &wferr.ValidationError{
			Entity: "invoice",
			Reason: fmt.Sprintf("amount %s is not positive", params.Amount),
		}
	}

	now := l.clock.Now()
	invoice := &schema.Invoice{
		ID:          ref.NewInvoiceID(),
		ProjectID:   params.ProjectID,
		Number:      params.Number,
		Amount:      params.Amount,
		Description: params.Description,
		State:       schema.InvoiceLoaded,
		IssuedOn:    params.IssuedOn,
		CreatedBy:   actor,
		CreatedAt:   now,
	}

	err := l.store.Write(ctx, func(tx *store.Tx) error {
		project, err := l.mutableProject(tx, params.ProjectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}
		if err := tx.InsertInvoice(invoice); err != nil {
			return err
		}
		description := fmt.Sprintf("Invoice %s loaded for %s", invoice.Number, invoice.Amount)
		return l.trail.RecordTx(tx, params.ProjectID, schema.EventInvoiceMovement, actor, description)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// ApproveInvoice moves a loaded invoice to approved and stamps the
// approver.
func (l *Lifecycle) ApproveInvoice(ctx context.Context, invoiceID ref.InvoiceID, actor ref.UserID) error {
	return l.moveInvoice(ctx, invoiceID, actor, schema.InvoiceApproved)
}

// MarkInvoicePendingCredit moves an approved invoice to
// pending_credit.
func (l *Lifecycle) MarkInvoicePendingCredit(ctx context.Context, invoiceID ref.InvoiceID, actor ref.UserID) error {
	return l.moveInvoice(ctx, invoiceID, actor, schema.InvoicePendingCredit)
}

// CreditInvoice moves a pending_credit invoice to credited and stamps
// the crediting actor.
func (l *Lifecycle) CreditInvoice(ctx context.Context, invoiceID ref.InvoiceID, actor ref.UserID) error {
	return l.moveInvoice(ctx, invoiceID, actor, schema.InvoiceCredited)
}

func (l *Lifecycle) moveInvoice(ctx context.Context, invoiceID ref.InvoiceID, actor ref.UserID, target schema.InvoiceState) error {
	var msgs []notify.Message
	err := l.store.Write(ctx, func(tx *store.Tx) error {
		invoice, err := tx.GetInvoice(invoiceID)
		if err != nil {
			return err
		}
		project, err := l.mutableProject(tx, invoice.ProjectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}
		if !schema.ValidInvoiceTransition(invoice.State, target) {
			return &wferr.ConflictError{
				Entity:   "invoice",
				ID:       invoiceID.String(),
				Expected: string(invoicePredecessor(target)),
				Actual:   string(invoice.State),
			}
		}

		now := l.clock.Now()
		oldState := invoice.State
		invoice.State = target
		switch target {
		case schema.InvoiceApproved:
			invoice.ApprovedBy = actor
			invoice.ApprovedAt = &now
		case schema.InvoiceCredited:
			invoice.CreditedBy = actor
			invoice.CreditedAt = &now
		}
		if err := tx.UpdateInvoice(invoice); err != nil {
			return err
		}

		description := fmt.Sprintf("Invoice %s: %s to %s", invoice.Number, oldState, target)
		if err := l.trail.RecordTx(tx, invoice.ProjectID, schema.EventInvoiceMovement, actor, description); err != nil {
			return err
		}

		msgs = l.notifyResponsible(project, actor,
			fmt.Sprintf("Invoice %s moved to %s", invoice.Number, target),
			fmt.Sprintf("%s moved invoice %s of %q from %s to %s.",
				actor, invoice.Number, project.Name, oldState, target))
		return nil
	})
	if err != nil {
		return err
	}
	l.notifier.Send(ctx, msgs...)
	return nil
}

// RejectInvoice deletes an invoice. There is no rejected state; the
// invoice-movement event in the project's trail is the rejection's
// only remaining record.
func (l *Lifecycle) RejectInvoice(ctx context.Context, invoiceID ref.InvoiceID, actor ref.UserID, reason string) error {
	var msgs []notify.Message
	err := l.store.Write(ctx, func(tx *store.Tx) error {
		invoice, err := tx.GetInvoice(invoiceID)
		if err != nil {
			return err
		}
		project, err := l.mutableProject(tx, invoice.ProjectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}

		if err := tx.DeleteInvoice(invoiceID); err != nil {
			return err
		}

		description := fmt.Sprintf("Invoice %s for %s rejected and removed", invoice.Number, invoice.Amount)
		if reason != "" {
			description += ": " + reason
		}
		if err := l.trail.RecordTx(tx, invoice.ProjectID, schema.EventInvoiceMovement, actor, description); err != nil {
			return err
		}

		msgs = l.notifyResponsible(project, actor,
			fmt.Sprintf("Invoice %s rejected", invoice.Number), description)
		return nil
	})
	if err != nil {
		return err
	}
	l.notifier.Send(ctx, msgs...)
	return nil
}

// ListInvoices returns a project's invoices, oldest first.
func (l *Lifecycle) ListInvoices(ctx context.Context, projectID ref.ProjectID) ([]*schema.Invoice, error) {
	var invoices []*schema.Invoice
	err := l.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		invoices, err = tx.ListInvoicesByProject(projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// invoicePredecessor is the state an invoice must be in to reach
// target.
func invoicePredecessor(target schema.InvoiceState) schema.InvoiceState {
	switch target {
	case schema.InvoiceApproved:
		return schema.InvoiceLoaded
	case schema.InvoicePendingCredit:
		return schema.InvoiceApproved
	case schema.InvoiceCredited:
		return schema.InvoicePendingCredit
	default:
		return target
	}
}
