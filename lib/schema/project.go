// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/ref"
)

// ProjectState is the lifecycle state of a project.
type ProjectState string

const (
	ProjectPlanned    ProjectState = "planned"
	ProjectBudgeted   ProjectState = "budgeted"
	ProjectApproved   ProjectState = "approved"
	ProjectInProgress ProjectState = "in_progress"
	ProjectPaused     ProjectState = "paused"
	ProjectFinished   ProjectState = "finished"
	ProjectInvoicing  ProjectState = "invoicing"
	ProjectArchived   ProjectState = "archived"
)

// ParseProjectState validates a raw project state string.
func ParseProjectState(raw string) (ProjectState, error) {
	switch state := ProjectState(raw); state {
	case ProjectPlanned, ProjectBudgeted, ProjectApproved, ProjectInProgress,
		ProjectPaused, ProjectFinished, ProjectInvoicing, ProjectArchived:
		return state, nil
	default:
		return "", fmt.Errorf("unknown project state %q", raw)
	}
}

// ValidProjectTransition reports whether a direct project state
// change from one state to another is allowed.
//
// The table covers the preparation flow (planned ⇄ budgeted →
// approved → in_progress), the pause toggle, and the billing tail
// (in_progress → invoicing ⇄ finished → archived). Closure and
// reopening are NOT in this table: a project reaches "finished" only
// through closure reconciliation and leaves it for "planned" only
// through the reopening coordinator, which carry their own guards.
// "archived" is terminal.
func ValidProjectTransition(from, to ProjectState) bool {
	if from == to {
		return false
	}
	switch from {
	case ProjectPlanned:
		return to == ProjectBudgeted || to == ProjectApproved || to == ProjectInProgress
	case ProjectBudgeted:
		return to == ProjectPlanned || to == ProjectApproved
	case ProjectApproved:
		return to == ProjectBudgeted || to == ProjectInProgress
	case ProjectInProgress:
		return to == ProjectPaused || to == ProjectInvoicing
	case ProjectPaused:
		return to == ProjectInProgress
	case ProjectFinished:
		return to == ProjectInvoicing || to == ProjectArchived
	case ProjectInvoicing:
		return to == ProjectFinished || to == ProjectInProgress || to == ProjectArchived
	case ProjectArchived:
		return false
	default:
		return false
	}
}

// Priority ranks projects and tasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority validates a raw priority string.
func ParsePriority(raw string) (Priority, error) {
	switch priority := Priority(raw); priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return priority, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// Project is the root entity of the workflow. Projects are never
// hard-deleted: archival is the terminal, non-destructive end state.
// All mutation goes through lifecycle operations.
type Project struct {
	ID          ref.ProjectID `cbor:"id"`
	Name        string        `cbor:"name"`
	Description string        `cbor:"description,omitempty"`
	State       ProjectState  `cbor:"state"`
	Priority    Priority      `cbor:"priority"`

	// Responsible is the project's responsible owner. Zero when the
	// project has no owner assigned.
	Responsible ref.UserID `cbor:"responsible,omitempty"`

	// Members is the unordered member set.
	Members []ref.UserID `cbor:"members,omitempty"`

	StartDate *time.Time `cbor:"start_date,omitempty"`
	EndDate   *time.Time `cbor:"end_date,omitempty"`

	// BudgetTotal is the agreed budget. Nil means no budget is set,
	// in which case closure reconciliation never reports an
	// incomplete closure.
	BudgetTotal *decimal.Decimal `cbor:"budget_total,omitempty"`

	// InvoicingIncomplete is true only while State is
	// ProjectFinished and the project was closed under the
	// incomplete-closure path. Reopening always clears it.
	InvoicingIncomplete bool `cbor:"invoicing_incomplete,omitempty"`

	// Archived marks the terminal end state. An archived project
	// rejects every further mutation.
	Archived bool `cbor:"archived,omitempty"`

	CreatedBy ref.UserID `cbor:"created_by,omitempty"`
	CreatedAt time.Time  `cbor:"created_at"`
	UpdatedAt time.Time  `cbor:"updated_at"`
}

// HasMember reports whether the user is in the project's member set.
func (p *Project) HasMember(user ref.UserID) bool {
	for _, member := range p.Members {
		if member == user {
			return true
		}
	}
	return false
}

// IsResponsible reports whether the user is the project's responsible
// owner.
func (p *Project) IsResponsible(user ref.UserID) bool {
	return !p.Responsible.IsZero() && p.Responsible == user
}
