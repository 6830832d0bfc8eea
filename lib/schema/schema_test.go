// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"testing"

	"github.com/workline-foundation/workline/lib/ref"
)

func TestParseProjectState(t *testing.T) {
	for _, raw := range []string{
		"planned", "budgeted", "approved", "in_progress",
		"paused", "finished", "invoicing", "archived",
	} {
		if _, err := ParseProjectState(raw); err != nil {
			t.Errorf("ParseProjectState(%q): %v", raw, err)
		}
	}
	if _, err := ParseProjectState("cancelled"); err == nil {
		t.Error("ParseProjectState accepted an unknown state")
	}
	if _, err := ParseProjectState(""); err == nil {
		t.Error("ParseProjectState accepted an empty state")
	}
}

func TestValidProjectTransition(t *testing.T) {
	allowed := []struct{ from, to ProjectState }{
		{ProjectPlanned, ProjectBudgeted},
		{ProjectPlanned, ProjectInProgress},
		{ProjectBudgeted, ProjectPlanned},
		{ProjectBudgeted, ProjectApproved},
		{ProjectApproved, ProjectInProgress},
		{ProjectInProgress, ProjectPaused},
		{ProjectInProgress, ProjectInvoicing},
		{ProjectPaused, ProjectInProgress},
		{ProjectInvoicing, ProjectFinished},
		{ProjectFinished, ProjectArchived},
	}
	for _, tt := range allowed {
		if !ValidProjectTransition(tt.from, tt.to) {
			t.Errorf("transition %s → %s should be allowed", tt.from, tt.to)
		}
	}

	rejected := []struct{ from, to ProjectState }{
		{ProjectPlanned, ProjectPlanned},
		{ProjectPlanned, ProjectFinished}, // closure path only
		{ProjectFinished, ProjectPlanned}, // reopening path only
		{ProjectArchived, ProjectPlanned},
		{ProjectArchived, ProjectInProgress},
		{ProjectPaused, ProjectFinished},
	}
	for _, tt := range rejected {
		if ValidProjectTransition(tt.from, tt.to) {
			t.Errorf("transition %s → %s should be rejected", tt.from, tt.to)
		}
	}
}

func TestTaskStateIsPending(t *testing.T) {
	for _, state := range []TaskState{TaskTodo, TaskDoing, TaskReview} {
		if !state.IsPending() {
			t.Errorf("%s should be pending", state)
		}
	}
	if TaskDone.IsPending() {
		t.Error("done should not be pending")
	}
}

func TestValidInvoiceTransition(t *testing.T) {
	chain := []InvoiceState{InvoiceLoaded, InvoiceApproved, InvoicePendingCredit, InvoiceCredited}
	for i := 0; i+1 < len(chain); i++ {
		if !ValidInvoiceTransition(chain[i], chain[i+1]) {
			t.Errorf("transition %s → %s should be allowed", chain[i], chain[i+1])
		}
	}
	// No skipping, no reversing, no terminal exit.
	if ValidInvoiceTransition(InvoiceLoaded, InvoicePendingCredit) {
		t.Error("loaded → pending_credit should be rejected")
	}
	if ValidInvoiceTransition(InvoiceApproved, InvoiceLoaded) {
		t.Error("approved → loaded should be rejected")
	}
	if ValidInvoiceTransition(InvoiceCredited, InvoiceLoaded) {
		t.Error("credited is terminal")
	}
}

func TestParseEventKind(t *testing.T) {
	for _, raw := range []string{
		"task-state-change", "reminder", "invoice-movement",
		"budget-adjustment", "incomplete-closure", "reopening",
		"closure", "project-state-change",
	} {
		if _, err := ParseEventKind(raw); err != nil {
			t.Errorf("ParseEventKind(%q): %v", raw, err)
		}
	}
	if _, err := ParseEventKind("deleted"); err == nil {
		t.Error("ParseEventKind accepted an unknown kind")
	}
}

func TestTaskIsAssigned(t *testing.T) {
	alice := ref.MustUserID("alice")
	bob := ref.MustUserID("bob")
	task := &Task{Assignees: []ref.UserID{alice}}
	if !task.IsAssigned(alice) {
		t.Error("alice should be assigned")
	}
	if task.IsAssigned(bob) {
		t.Error("bob should not be assigned")
	}
}

func TestProjectMembership(t *testing.T) {
	alice := ref.MustUserID("alice")
	bob := ref.MustUserID("bob")
	project := &Project{Responsible: alice, Members: []ref.UserID{bob}}
	if !project.IsResponsible(alice) {
		t.Error("alice should be responsible")
	}
	if project.IsResponsible(bob) {
		t.Error("bob should not be responsible")
	}
	if (&Project{}).IsResponsible(ref.UserID{}) {
		t.Error("a project without an owner has no responsible user")
	}
	if !project.HasMember(bob) {
		t.Error("bob should be a member")
	}
	if project.HasMember(alice) {
		t.Error("alice should not be a member")
	}
}
