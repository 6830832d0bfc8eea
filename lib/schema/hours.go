// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/ref"
)

// WorkEntryState is the approval state of a work-hour entry.
type WorkEntryState string

const (
	WorkEntryLoaded   WorkEntryState = "loaded"
	WorkEntryApproved WorkEntryState = "approved"
	WorkEntryRejected WorkEntryState = "rejected"
)

// ParseWorkEntryState validates a raw work-hour entry state string.
func ParseWorkEntryState(raw string) (WorkEntryState, error) {
	switch state := WorkEntryState(raw); state {
	case WorkEntryLoaded, WorkEntryApproved, WorkEntryRejected:
		return state, nil
	default:
		return "", fmt.Errorf("unknown work-hour entry state %q", raw)
	}
}

// WorkHourEntry records hours worked by a user, optionally against a
// project and task. Entries move loaded → approved or loaded →
// rejected exactly once; re-deciding a decided entry is a conflict.
type WorkHourEntry struct {
	ID   ref.WorkEntryID `cbor:"id"`
	User ref.UserID      `cbor:"user"`

	// ProjectID and TaskID are optional context references; zero
	// values mean the hours were not booked against a project or
	// task.
	ProjectID ref.ProjectID `cbor:"project_id,omitempty"`
	TaskID    ref.TaskID    `cbor:"task_id,omitempty"`

	// Date is the calendar day the hours were worked.
	Date time.Time `cbor:"date"`

	// Hours is the worked duration in hours, rounded to two decimal
	// places (0.25, 1.50, 8.00). Always strictly positive.
	Hours decimal.Decimal `cbor:"hours"`

	Description string `cbor:"description,omitempty"`

	// Billable marks the entry as chargeable against the project
	// budget.
	Billable bool `cbor:"billable,omitempty"`

	State WorkEntryState `cbor:"state"`

	// DecidedBy and DecidedAt are set exactly once, when the entry is
	// approved or rejected.
	DecidedBy ref.UserID `cbor:"decided_by,omitempty"`
	DecidedAt *time.Time `cbor:"decided_at,omitempty"`

	CreatedAt time.Time `cbor:"created_at"`
	UpdatedAt time.Time `cbor:"updated_at"`
}
