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

const projectColumns = `id, name, description, state, priority, responsible,
	start_date, end_date, budget_total, invoicing_incomplete, archived,
	created_by, created_at, updated_at`

// InsertProject stores a new project and its member set.
func (tx *Tx) InsertProject(p *schema.Project) error {
	err := sqlitex.Execute(tx.conn, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: projectArgs(p)})
	if err != nil {
		return fmt.Errorf("store: inserting project %s: %w", p.ID, err)
	}
	return tx.replaceProjectMembers(p.ID, p.Members)
}

// UpdateProject overwrites every mutable column of an existing
// project, including the member set.
func (tx *Tx) UpdateProject(p *schema.Project) error {
	err := sqlitex.Execute(tx.conn, `
		UPDATE projects SET
			name = ?2, description = ?3, state = ?4, priority = ?5,
			responsible = ?6, start_date = ?7, end_date = ?8,
			budget_total = ?9, invoicing_incomplete = ?10, archived = ?11,
			created_by = ?12, created_at = ?13, updated_at = ?14
		WHERE id = ?1`,
		&sqlitex.ExecOptions{Args: projectArgs(p)})
	if err != nil {
		return fmt.Errorf("store: updating project %s: %w", p.ID, err)
	}
	if tx.conn.Changes() == 0 {
		return &wferr.NotFoundError{Entity: "project", ID: p.ID.String()}
	}
	return tx.replaceProjectMembers(p.ID, p.Members)
}

// GetProject loads one project with its member set.
func (tx *Tx) GetProject(id ref.ProjectID) (*schema.Project, error) {
	var project *schema.Project
	err := sqlitex.Execute(tx.conn, `
		SELECT `+projectColumns+` FROM projects WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p, err := scanProject(stmt)
				if err != nil {
					return err
				}
				project = p
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading project %s: %w", id, err)
	}
	if project == nil {
		return nil, &wferr.NotFoundError{Entity: "project", ID: id.String()}
	}

	members, err := tx.projectMembers(id)
	if err != nil {
		return nil, err
	}
	project.Members = members
	return project, nil
}

// ListProjects returns every project, ordered by creation time.
func (tx *Tx) ListProjects() ([]*schema.Project, error) {
	var projects []*schema.Project
	err := sqlitex.Execute(tx.conn, `
		SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p, err := scanProject(stmt)
				if err != nil {
					return err
				}
				projects = append(projects, p)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: listing projects: %w", err)
	}
	for _, p := range projects {
		members, err := tx.projectMembers(p.ID)
		if err != nil {
			return nil, err
		}
		p.Members = members
	}
	return projects, nil
}

func projectArgs(p *schema.Project) []any {
	var startDate, endDate, budget any
	if p.StartDate != nil {
		startDate = formatDate(*p.StartDate)
	}
	if p.EndDate != nil {
		endDate = formatDate(*p.EndDate)
	}
	if p.BudgetTotal != nil {
		budget = p.BudgetTotal.String()
	}
	return []any{
		p.ID.String(), p.Name, p.Description, string(p.State), string(p.Priority),
		textOrNull(p.Responsible.String()), startDate, endDate, budget,
		boolToInt(p.InvoicingIncomplete), boolToInt(p.Archived),
		textOrNull(p.CreatedBy.String()), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	}
}

func scanProject(stmt *sqlite.Stmt) (*schema.Project, error) {
	id, err := ref.ParseProjectID(stmt.ColumnText(0))
	if err != nil {
		return nil, err
	}
	state, err := schema.ParseProjectState(stmt.ColumnText(3))
	if err != nil {
		return nil, err
	}
	priority, err := schema.ParsePriority(stmt.ColumnText(4))
	if err != nil {
		return nil, err
	}

	p := &schema.Project{
		ID:                  id,
		Name:                stmt.ColumnText(1),
		Description:         stmt.ColumnText(2),
		State:               state,
		Priority:            priority,
		InvoicingIncomplete: stmt.ColumnInt64(9) != 0,
		Archived:            stmt.ColumnInt64(10) != 0,
	}

	if raw := columnTextOrEmpty(stmt, 5); raw != "" {
		if p.Responsible, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if raw := columnTextOrEmpty(stmt, 6); raw != "" {
		start, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		p.StartDate = &start
	}
	if raw := columnTextOrEmpty(stmt, 7); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		p.EndDate = &end
	}
	if raw := columnTextOrEmpty(stmt, 8); raw != "" {
		budget, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("store: malformed budget %q: %w", raw, err)
		}
		p.BudgetTotal = &budget
	}
	if raw := columnTextOrEmpty(stmt, 11); raw != "" {
		if p.CreatedBy, err = ref.ParseUserID(raw); err != nil {
			return nil, err
		}
	}
	if p.CreatedAt, err = parseTime(stmt.ColumnText(12)); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(stmt.ColumnText(13)); err != nil {
		return nil, err
	}
	return p, nil
}

func (tx *Tx) replaceProjectMembers(id ref.ProjectID, members []ref.UserID) error {
	err := sqlitex.Execute(tx.conn,
		`DELETE FROM project_members WHERE project_id = ?`,
		&sqlitex.ExecOptions{Args: []any{id.String()}})
	if err != nil {
		return fmt.Errorf("store: clearing members of %s: %w", id, err)
	}
	for _, member := range members {
		err := sqlitex.Execute(tx.conn,
			`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
			&sqlitex.ExecOptions{Args: []any{id.String(), member.String()}})
		if err != nil {
			return fmt.Errorf("store: adding member %s to %s: %w", member, id, err)
		}
	}
	return nil
}

func (tx *Tx) projectMembers(id ref.ProjectID) ([]ref.UserID, error) {
	var members []ref.UserID
	err := sqlitex.Execute(tx.conn, `
		SELECT user_id FROM project_members
		WHERE project_id = ? ORDER BY user_id`,
		&sqlitex.ExecOptions{
			Args: []any{id.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				member, err := ref.ParseUserID(stmt.ColumnText(0))
				if err != nil {
					return err
				}
				members = append(members, member)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: reading members of %s: %w", id, err)
	}
	return members, nil
}
