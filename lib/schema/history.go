// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"

	"github.com/workline-foundation/workline/lib/ref"
)

// EventKind classifies an audit-trail event.
type EventKind string

const (
	EventTaskStateChange    EventKind = "task-state-change"
	EventReminder           EventKind = "reminder"
	EventInvoiceMovement    EventKind = "invoice-movement"
	EventBudgetAdjustment   EventKind = "budget-adjustment"
	EventIncompleteClosure  EventKind = "incomplete-closure"
	EventReopening          EventKind = "reopening"
	EventClosure            EventKind = "closure"
	EventProjectStateChange EventKind = "project-state-change"
)

// ParseEventKind validates a raw event kind string.
func ParseEventKind(raw string) (EventKind, error) {
	switch kind := EventKind(raw); kind {
	case EventTaskStateChange, EventReminder, EventInvoiceMovement,
		EventBudgetAdjustment, EventIncompleteClosure, EventReopening,
		EventClosure, EventProjectStateChange:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", raw)
	}
}

// HistoryEvent is one entry in a project's append-only audit trail.
// Events are immutable: no update or delete operation exists, and the
// trail survives the deletion of everything it describes (a deleted
// task's events remain under the project; a rejected invoice exists
// only as its events).
type HistoryEvent struct {
	// Seq is the storage-assigned sequence number. Later events have
	// larger sequence numbers; reads return newest first.
	Seq int64 `cbor:"seq"`

	ProjectID   ref.ProjectID `cbor:"project_id"`
	Kind        EventKind     `cbor:"kind"`
	Description string        `cbor:"description"`

	// Actor is the user whose action produced the event. Zero for
	// events recorded by the system itself (e.g. reminders).
	Actor ref.UserID `cbor:"actor,omitempty"`

	CreatedAt time.Time `cbor:"created_at"`
}
