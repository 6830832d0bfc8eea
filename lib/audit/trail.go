// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"

	"github.com/workline-foundation/workline/lib/clock"
	"github.com/workline-foundation/workline/lib/ref"
	"github.com/workline-foundation/workline/lib/schema"
	"github.com/workline-foundation/workline/lib/store"
)

// Trail appends to and reads a project's audit history.
type Trail struct {
	store *store.Store
	clock clock.Clock
}

// New returns a Trail over the store. If clk is nil, the real clock
// is used.
func New(s *store.Store, clk clock.Clock) *Trail {
	if clk == nil {
		clk = clock.Real()
	}
	return &Trail{store: s, clock: clk}
}

// RecordTx appends one event inside the caller's open transaction.
// Workflow operations use this form so the event commits or rolls
// back together with the mutation it describes.
func (t *Trail) RecordTx(tx *store.Tx, projectID ref.ProjectID, kind schema.EventKind, actor ref.UserID, description string) error {
	return tx.AppendHistory(&schema.HistoryEvent{
		ProjectID:   projectID,
		Kind:        kind,
		Description: description,
		Actor:       actor,
		CreatedAt:   t.clock.Now(),
	})
}

// Record appends one event in its own transaction. Used for events
// with no accompanying mutation, such as reminders.
func (t *Trail) Record(ctx context.Context, projectID ref.ProjectID, kind schema.EventKind, actor ref.UserID, description string) error {
	return t.store.Write(ctx, func(tx *store.Tx) error {
		return t.RecordTx(tx, projectID, kind, actor, description)
	})
}

// List returns the project's history, newest first.
func (t *Trail) List(ctx context.Context, projectID ref.ProjectID) ([]*schema.HistoryEvent, error) {
	var events []*schema.HistoryEvent
	err := t.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		events, err = tx.ListHistory(projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
