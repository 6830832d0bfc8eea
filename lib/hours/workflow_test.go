// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package hours

import (
	"context"
	"path/filepath"
	"testing"
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

type fixture struct {
	workflow   *Workflow
	store      *store.Store
	trail      *audit.Trail
	checker    *authorization.StaticChecker
	dispatcher *notify.MemoryDispatcher
	clock      *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(store.Config{
		Path:     filepath.Join(t.TempDir(), "workline.db"),
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clk := clock.Fake(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	trail := audit.New(s, clk)
	checker := authorization.NewStaticChecker()
	dispatcher := &notify.MemoryDispatcher{}

	workflow := New(Config{
		Store:    s,
		Trail:    trail,
		Checker:  checker,
		Notifier: notify.New(dispatcher, nil),
		Clock:    clk,
	})
	return &fixture{
		workflow:   workflow,
		store:      s,
		trail:      trail,
		checker:    checker,
		dispatcher: dispatcher,
		clock:      clk,
	}
}

var (
	worker   = ref.MustUserID("worker")
	approver = ref.MustUserID("approver")
)

func (f *fixture) seedProject(t *testing.T) ref.ProjectID {
	t.Helper()
	now := f.clock.Now()
	project := &schema.Project{
		ID:        ref.NewProjectID(),
		Name:      "relocation",
		State:     schema.ProjectInProgress,
		Priority:  schema.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := f.store.Write(context.Background(), func(tx *store.Tx) error {
		return tx.InsertProject(project)
	})
	if err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	return project.ID
}

func TestSubmitDerivesFromRange(t *testing.T) {
	f := newFixture(t)

	entry, err := f.workflow.Submit(context.Background(), SubmitParams{
		User:  worker,
		Date:  f.clock.Now(),
		Start: "09:00",
		End:   "17:30",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if want := decimal.RequireFromString("8.5"); !entry.Hours.Equal(want) {
		t.Errorf("hours = %s, want %s", entry.Hours, want)
	}
	if entry.State != schema.WorkEntryLoaded {
		t.Errorf("state = %s, want loaded", entry.State)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := f.clock.Now()
	negative := decimal.RequireFromString("-1")
	positive := decimal.RequireFromString("2")

	cases := []struct {
		name   string
		params SubmitParams
	}{
		{"no duration at all", SubmitParams{User: worker, Date: date}},
		{"end before start", SubmitParams{User: worker, Date: date, Start: "17:00", End: "09:00"}},
		{"zero range", SubmitParams{User: worker, Date: date, Start: "09:00", End: "09:00"}},
		{"only start", SubmitParams{User: worker, Date: date, Start: "09:00"}},
		{"malformed start", SubmitParams{User: worker, Date: date, Start: "nine", End: "17:00"}},
		{"negative direct", SubmitParams{User: worker, Date: date, Hours: &negative}},
		{"both forms", SubmitParams{User: worker, Date: date, Start: "09:00", End: "10:00", Hours: &positive}},
		{"missing user", SubmitParams{Date: date, Hours: &positive}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.workflow.Submit(ctx, tc.params); !wferr.IsValidation(err) {
				t.Errorf("got %v, want ValidationError", err)
			}
		})
	}

	// Nothing was persisted for the worker.
	entries, err := f.workflow.ListByUser(ctx, worker)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected submissions persisted: %v", entries)
	}
}

func TestApproveRequiresCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hoursWorked := decimal.RequireFromString("4")

	entry, err := f.workflow.Submit(ctx, SubmitParams{User: worker, Date: f.clock.Now(), Hours: &hoursWorked})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := f.workflow.Approve(ctx, entry.ID, approver); !wferr.IsPermission(err) {
		t.Fatalf("ungranted approve returned %v, want PermissionError", err)
	}

	f.checker.Grant(approver, authorization.CapApproveHours)
	if err := f.workflow.Approve(ctx, entry.ID, approver); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	entries, err := f.workflow.ListByUser(ctx, worker)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	got := entries[0]
	if got.State != schema.WorkEntryApproved {
		t.Errorf("state = %s, want approved", got.State)
	}
	if got.DecidedBy != approver || got.DecidedAt == nil {
		t.Errorf("decision stamp missing: by=%s at=%v", got.DecidedBy, got.DecidedAt)
	}

	if msgs := f.dispatcher.Messages(); len(msgs) != 1 || msgs[0].To != worker {
		t.Errorf("notifications = %v, want one to the submitter", msgs)
	}
}

func TestRedecisionIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checker.Grant(approver, authorization.CapApproveHours)
	hoursWorked := decimal.RequireFromString("4")

	entry, err := f.workflow.Submit(ctx, SubmitParams{User: worker, Date: f.clock.Now(), Hours: &hoursWorked})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.workflow.Reject(ctx, entry.ID, approver); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if err := f.workflow.Reject(ctx, entry.ID, approver); !wferr.IsConflict(err) {
		t.Errorf("re-reject returned %v, want ConflictError", err)
	}
	if err := f.workflow.Approve(ctx, entry.ID, approver); !wferr.IsConflict(err) {
		t.Errorf("approve after reject returned %v, want ConflictError", err)
	}
}

func TestDecisionAuditsProjectTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checker.Grant(approver, authorization.CapApproveHours)
	projectID := f.seedProject(t)
	hoursWorked := decimal.RequireFromString("6")

	entry, err := f.workflow.Submit(ctx, SubmitParams{
		User:      worker,
		ProjectID: projectID,
		Date:      f.clock.Now(),
		Hours:     &hoursWorked,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.workflow.Approve(ctx, entry.ID, approver); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	events, err := f.trail.List(ctx, projectID)
	if err != nil {
		t.Fatalf("trail.List: %v", err)
	}
	if len(events) != 1 || events[0].Kind != schema.EventBudgetAdjustment {
		t.Fatalf("events = %v, want one budget-adjustment", events)
	}
	if events[0].Actor != approver {
		t.Errorf("event actor = %s, want approver", events[0].Actor)
	}
}

func TestPendingQueueAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checker.Grant(approver, authorization.CapApproveHours)

	submit := func(hours string, billable bool) ref.WorkEntryID {
		value := decimal.RequireFromString(hours)
		entry, err := f.workflow.Submit(ctx, SubmitParams{
			User: worker, Date: f.clock.Now(), Hours: &value, Billable: billable,
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		return entry.ID
	}
	first := submit("8", true)
	submit("2", false)

	if err := f.workflow.Approve(ctx, first, approver); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	queue, err := f.workflow.PendingQueue(ctx)
	if err != nil {
		t.Fatalf("PendingQueue: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("queue has %d entries, want 1", len(queue))
	}

	summary, err := f.workflow.Summary(ctx, worker)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if want := decimal.RequireFromString("10"); !summary.Total.Equal(want) {
		t.Errorf("total = %s, want %s", summary.Total, want)
	}
	if want := decimal.RequireFromString("8"); !summary.Approved.Equal(want) || !summary.Billable.Equal(want) {
		t.Errorf("approved/billable = %s/%s, want both %s", summary.Approved, summary.Billable, want)
	}
}
