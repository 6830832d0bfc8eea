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

const invoiceColumns = `id, project_id, number, amount, description, state,
	issued_on, created_by, created_at, approved_by, approved_at,
	credited_by, credited_at`

// InsertInvoice stores a new invoice.
func (tx *Tx) InsertInvoice(inv *schema.Invoice) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: invoiceArgs(inv)})
	if err != nil {
		return fmt.Errorf("store: inserting invoice %s: %w", inv.ID, err)
	}
	return nil
}

// UpdateInvoice overwrites every mutable column of an existing
// invoice.
func (tx *Tx) UpdateInvoice(inv *schema.Invoice) error {
	err := sqlitex.Execute(tx.conn, `
		UPDATE invoices SET
			project_id = ?2, number = ?3, amount = ?4, description = ?5,
			state = ?6, issued_on = ?7, created_by = ?8, created_at = ?9,
			approved_by = ?10, approved_at = ?11, credited_by = ?12, credited_at = ?13
		WHERE id = ?1`,
		&sqlitex.ExecOptions{Args: invoiceArgs(inv)})
	if err != nil {
		return fmt.Errorf("store: updating invoice %s: %w", inv.ID, err)
	}
	if tx.conn.Changes() == 0 {
		return &wferr.NotFoundError{Entity: "invoice", ID: inv.ID.String()}
	}
	return nil
}

// GetInvoice loads one invoice.
func (tx *Tx) GetInvoice(id ref.InvoiceID) (*schema.Invoice, error) {
	var invoice *schema.Invoice
	err := sqlitex.Execute(tx.conn, `
		SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				inv, err := scanInvoice(stmt)
				if err != nil {
					return err
				}
				invoice = inv
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading invoice %s: %w", id, err)
	}
	if invoice == nil {
		return nil, &wferr.NotFoundError{Entity: "invoice", ID: id.String()}
	}
	return invoice, nil
}

// DeleteInvoice removes an invoice permanently. Rejection is the only
// caller; the audit trail keeps the record of the rejection.
func (tx *Tx) DeleteInvoice(id ref.InvoiceID) error {
	err := sqlitex.Execute(tx.conn, `DELETE FROM invoices WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id.String()}})
	if err != nil {
		return fmt.Errorf("store: deleting invoice %s: %w", id, err)
	}
	if tx.conn.Changes() == 0 {
		return &wferr.NotFoundError{Entity: "invoice", ID: id.String()}
	}
	return nil
}

// ListInvoicesByProject returns a project's invoices, ordered by
// creation time.
func (tx *Tx) ListInvoicesByProject(projectID ref.ProjectID) ([]*schema.Invoice, error) {
	var invoices []*schema.Invoice
	err := sqlitex.Execute(tx.conn, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE project_id = ? ORDER BY created_at, id`,
		&sqlitex.ExecOptions{
			Args: []any{projectID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				inv, err := scanInvoice(stmt)
				if err != nil {
					return err
				}
				invoices = append(invoices, inv)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: listing invoices for %s: %w", projectID, err)
	}
	return invoices, nil
}

// InvoicedTotal sums the amounts of ALL the project's invoices,
// regardless of state. Amounts are stored as canonical decimal text,
// so the sum runs in Go rather than SQL.
func (tx *Tx) InvoicedTotal(projectID ref.ProjectID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := sqlitex.Execute(tx.conn, `
		SELECT amount FROM invoices WHERE project_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{projectID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				amount, err := decimal.NewFromString(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("store: malformed amount %q: %w", stmt.ColumnText(0), err)
				}
				total = total.Add(amount)
				return nil
			},
		})
	if err != nil {
		return decimal.Zero, fmt.Errorf("store: summing invoices for %s: %w", projectID, err)
	}
	return total, nil
}

func invoiceArgs(inv *schema.Invoice) []any {
	var approvedAt, creditedAt any
	if inv.ApprovedAt != nil {
		approvedAt = formatTime(*inv.ApprovedAt)
	}
	if inv.CreditedAt != nil {
		creditedAt = formatTime(*inv.CreditedAt)
	}
	return []any{
		inv.ID.String(), inv.ProjectID.String(), inv.Number, inv.Amount.String(),
		inv.Description, string(inv.State), formatDate(inv.IssuedOn),
		textOrNull(inv.CreatedBy.String()), formatTime(inv.CreatedAt),
		textOrNull(inv.ApprovedBy.String()), approvedAt,
		textOrNull(inv.CreditedBy.String()), creditedAt,
	}
}

func scanInvoice(stmt *sqlite.Stmt) (*schema.Invoice, error) {
	id, err := ref.ParseInvoiceID(stmt.ColumnText(0))
	if err != nil {
		return nil, err
	}
	projectID, err := ref.ParseProjectID(stmt.ColumnText(1))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(stmt.ColumnText(3))
	if err != nil {
		return nil, fmt.Errorf("store: malformed amount %q: %w", stmt.ColumnText(3), err)
	}
	state, err := schema.ParseInvoiceState(stmt.ColumnText(5))
	if err != nil {
		return nil, err
	}

	inv := &schema.Invoice{
		ID:          id,
		ProjectID:   projectID,
		Number:      stmt.ColumnText(2),
		Amount:      amount,
		Description: stmt.ColumnText(4),
		State:       state,
	}
	if inv.IssuedOn, err = parseDate(stmt.ColumnText(6)); err != nil {
		return nil, err
	}
	if raw := columnTextOrEmpty(stmt, 7); raw != "" {
		if inv.CreatedBy, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if inv.CreatedAt, err = parseTime(stmt.ColumnText(8)); err != nil {
		return nil, err
	}
	if raw := columnTextOrEmpty(stmt, 9); raw != "" {
		if inv.ApprovedBy, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if raw := columnTextOrEmpty(stmt, 10); raw != "" {
		approvedAt, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		inv.ApprovedAt = &approvedAt
	}
	if raw := columnTextOrEmpty(stmt, 11); raw != "" {
		if inv.CreditedBy, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if raw := columnTextOrEmpty(stmt, 12); raw != "" {
		creditedAt, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		inv.CreditedAt = &creditedAt
	}
	return inv, nil
}
