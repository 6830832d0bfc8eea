// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
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

// Config holds the dependencies of a Lifecycle.
type Config struct {
	Store    *store.Store
	Trail    *audit.Trail
	Checker  authorization.Checker
	Notifier *notify.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger

	// LinkBase, when set, prefixes the deep links carried by
	// notifications.
	LinkBase string
}

// Lifecycle exposes the project workflow operations.
type Lifecycle struct {
	store    *store.Store
	trail    *audit.Trail
	checker  authorization.Checker
	notifier *notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	linkBase string
}

// New assembles a Lifecycle. Store, Trail, and Checker are required;
// Clock defaults to the real clock and Logger to a no-op logger.
func New(cfg Config) *Lifecycle {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Lifecycle{
		store:    cfg.Store,
		trail:    cfg.Trail,
		checker:  cfg.Checker,
		notifier: cfg.Notifier,
		clock:    clk,
		logger:   logger,
		linkBase: cfg.LinkBase,
	}
}

// CreateProjectParams are the fields of a new project. State is
// always planned; it is not a parameter.
type CreateProjectParams struct {
	Name        string
	Description string
	Priority    schema.Priority
	Responsible ref.UserID
	Members     []ref.UserID
	StartDate   *time.Time
	EndDate     *time.Time
	BudgetTotal *decimal.Decimal
}

// CreateProject creates a project in state planned. Requires
// manage_projects.
func (l *Lifecycle) CreateProject(ctx context.Context, params CreateProjectParams, actor ref.UserID) (*schema.Project, error) {
	if params.Name == "" {
		return nil, &wferr.ValidationError{Entity: "project", Reason: "name is required"}
	}
	if !l.checker.HasCapability(actor, authorization.CapManageProjects, ref.ProjectID{}) {
		return nil, &wferr.PermissionError{
			Actor:      actor.String(),
			Capability: string(authorization.CapManageProjects),
			Entity:     "project",
		}
	}
	priority := params.Priority
	if priority == "" {
		priority = schema.PriorityMedium
	}

	now := l.clock.Now()
	project := &schema.Project{
		ID:          ref.NewProjectID(),
		Name:        params.Name,
		Description: params.Description,
		State:       schema.ProjectPlanned,
		Priority:    priority,
		Responsible: params.Responsible,
		Members:     params.Members,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		BudgetTotal: params.BudgetTotal,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := l.store.Write(ctx, func(tx *store.Tx) error {
		if err := tx.InsertProject(project); err != nil {
			return err
		}
		description := fmt.Sprintf("Project %q created", project.Name)
		return l.trail.RecordTx(tx, project.ID, schema.EventProjectStateChange, actor, description)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// ChangeState moves a project along its transition table. Closure and
// reopening are excluded from the table and have their own
// operations; a transition outside the table is a validation error.
// The responsible owner is notified.
func (l *Lifecycle) ChangeState(ctx context.Context, projectID ref.ProjectID, newState schema.ProjectState, actor ref.UserID) error {
	if _, err := schema.ParseProjectState(string(newState)); err != nil {
		return &wferr.ValidationError{Entity: "project", ID: projectID.String(), Reason: err.Error()}
	}

	var msgs []notify.Message
	err := l.store.Write(ctx, func(tx *store.Tx) error {
		project, err := l.mutableProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}
		if !schema.ValidProjectTransition(project.State, newState) {
			return &wferr.ValidationError{
				Entity: "project",
				ID:     projectID.String(),
				Reason: fmt.Sprintf("no transition from %s to %s", project.State, newState),
			}
		}

		oldState := project.State
		project.State = newState
		if newState == schema.ProjectArchived {
			project.Archived = true
		}
		project.UpdatedAt = l.clock.Now()
		if err := tx.UpdateProject(project); err != nil {
			return err
		}

		description := fmt.Sprintf("Project %q: %s to %s", project.Name, oldState, newState)
		if err := l.trail.RecordTx(tx, project.ID, schema.EventProjectStateChange, actor, description); err != nil {
			return err
		}

		msgs = l.notifyResponsible(project, actor,
			fmt.Sprintf("Project %q moved to %s", project.Name, newState),
			fmt.Sprintf("%s moved %q from %s to %s.", actor, project.Name, oldState, newState))
		return nil
	})
	if err != nil {
		return err
	}
	l.notifier.Send(ctx, msgs...)
	return nil
}

// Archive puts a project into its terminal, non-destructive end
// state. An already-archived project is a conflict. The project's
// records stay readable forever; only mutation stops.
func (l *Lifecycle) Archive(ctx context.Context, projectID ref.ProjectID, actor ref.UserID) error {
	var msgs []notify.Message
	err := l.store.Write(ctx, func(tx *store.Tx) error {
		project, err := l.mutableProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := l.requireManage(project, actor); err != nil {
			return err
		}

		project.Archived = true
		project.State = schema.ProjectArchived
		project.UpdatedAt = l.clock.Now()
		if err := tx.UpdateProject(project); err != nil {
			return err
		}

		description := fmt.Sprintf("Project %q archived", project.Name)
		if err := l.trail.RecordTx(tx, project.ID, schema.EventClosure, actor, description); err != nil {
			return err
		}

		msgs = l.notifyResponsible(project, actor,
			fmt.Sprintf("Project %q archived", project.Name),
			fmt.Sprintf("%s archived %q.", actor, project.Name))
		return nil
	})
	if err != nil {
		return err
	}
	l.notifier.Send(ctx, msgs...)
	return nil
}

// AppendHistory writes a free-form event to a project's trail. The
// project must exist; the kind must be a known kind. This is the raw
// append surface; the guarded operations record their own events.
func (l *Lifecycle) AppendHistory(ctx context.Context, projectID ref.ProjectID, kind schema.EventKind, description string, actor ref.UserID) error {
	if _, err := schema.ParseEventKind(string(kind)); err != nil {
		return &wferr.ValidationError{Entity: "history event", Reason: err.Error()}
	}
	if description == "" {
		return &wferr.ValidationError{Entity: "history event", Reason: "description is required"}
	}
	return l.store.Write(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetProject(projectID); err != nil {
			return err
		}
		return l.trail.RecordTx(tx, projectID, kind, actor, description)
	})
}

// ReadHistory returns a project's audit trail, newest first.
func (l *Lifecycle) ReadHistory(ctx context.Context, projectID ref.ProjectID) ([]*schema.HistoryEvent, error) {
	return l.trail.List(ctx, projectID)
}

// GetProject loads one project.
func (l *Lifecycle) GetProject(ctx context.Context, projectID ref.ProjectID) (*schema.Project, error) {
	var project *schema.Project
	err := l.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		project, err = tx.GetProject(projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// mutableProject loads a project and rejects mutation of archived
// ones.
func (l *Lifecycle) mutableProject(tx *store.Tx, id ref.ProjectID) (*schema.Project, error) {
	project, err := tx.GetProject(id)
	if err != nil {
		return nil, err
	}
	if project.Archived {
		return nil, &wferr.ConflictError{
			Entity: "project",
			ID:     id.String(),
			Reason: "project is archived",
		}
	}
	return project, nil
}

// requireManage passes for actors with manage_projects or the
// project's responsible owner.
func (l *Lifecycle) requireManage(project *schema.Project, actor ref.UserID) error {
	if l.checker.HasCapability(actor, authorization.CapManageProjects, project.ID) {
		return nil
	}
	if project.IsResponsible(actor) {
		return nil
	}
	return &wferr.PermissionError{
		Actor:      actor.String(),
		Capability: string(authorization.CapManageProjects),
		Entity:     "project",
		ID:         project.ID.String(),
	}
}

func (l *Lifecycle) notifyResponsible(project *schema.Project, actor ref.UserID, subject, body string) []notify.Message {
	if project.Responsible.IsZero() || project.Responsible == actor {
		return nil
	}
	return []notify.Message{{
		To:      project.Responsible,
		Subject: subject,
		Body:    body,
		Link:    l.link("projects", project.ID.String()),
	}}
}

func (l *Lifecycle) link(kind, id string) string {
	if l.linkBase == "" {
		return ""
	}
	return l.linkBase + "/" + kind + "/" + id
}
