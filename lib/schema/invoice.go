// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/ref"
)

// InvoiceState is the billing state of an invoice.
type InvoiceState string

const (
	InvoiceLoaded        InvoiceState = "loaded"
	InvoiceApproved      InvoiceState = "approved"
	InvoicePendingCredit InvoiceState = "pending_credit"
	InvoiceCredited      InvoiceState = "credited"
)

// ParseInvoiceState validates a raw invoice state string.
func ParseInvoiceState(raw string) (InvoiceState, error) {
	switch state := InvoiceState(raw); state {
	case InvoiceLoaded, InvoiceApproved, InvoicePendingCredit, InvoiceCredited:
		return state, nil
	default:
		return "", fmt.Errorf("unknown invoice state %q", raw)
	}
}

// ValidInvoiceTransition reports whether an invoice may move from one
// state to another. The machine is a straight line:
// loaded → approved → pending_credit → credited. There is no
// "rejected" state — a rejected invoice is deleted, and the audit
// trail is the only record of the rejection.
func ValidInvoiceTransition(from, to InvoiceState) bool {
	switch from {
	case InvoiceLoaded:
		return to == InvoiceApproved
	case InvoiceApproved:
		return to == InvoicePendingCredit
	case InvoicePendingCredit:
		return to == InvoiceCredited
	default:
		return false
	}
}

// Invoice is a billing line item against a project. Its full amount
// counts toward the project's invoiced total in every state,
// including merely loaded — closure reconciliation deliberately does
// not filter by invoice state.
type Invoice struct {
	ID        ref.InvoiceID `cbor:"id"`
	ProjectID ref.ProjectID `cbor:"project_id"`

	Number      string          `cbor:"number"`
	Amount      decimal.Decimal `cbor:"amount"`
	Description string          `cbor:"description,omitempty"`
	State       InvoiceState    `cbor:"state"`

	// IssuedOn is the invoice's issuance date.
	IssuedOn time.Time `cbor:"issued_on"`

	CreatedBy ref.UserID `cbor:"created_by,omitempty"`
	CreatedAt time.Time  `cbor:"created_at"`

	ApprovedBy ref.UserID `cbor:"approved_by,omitempty"`
	ApprovedAt *time.Time `cbor:"approved_at,omitempty"`

	CreditedBy ref.UserID `cbor:"credited_by,omitempty"`
	CreditedAt *time.Time `cbor:"credited_at,omitempty"`
}
