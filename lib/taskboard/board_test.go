// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package taskboard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

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
	board      *Board
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

	board := New(Config{
		Store:    s,
		Trail:    trail,
		Checker:  checker,
		Notifier: notify.New(dispatcher, nil),
		Clock:    clk,
	})
	return &fixture{
		board:      board,
		store:      s,
		trail:      trail,
		checker:    checker,
		dispatcher: dispatcher,
		clock:      clk,
	}
}

var (
	owner   = ref.MustUserID("owner")
	alice   = ref.MustUserID("alice")
	bob     = ref.MustUserID("bob")
	outcast = ref.MustUserID("outcast")
)

func (f *fixture) seedProject(t *testing.T, archived bool) ref.ProjectID {
	t.Helper()
	now := f.clock.Now()
	project := &schema.Project{
		ID:          ref.NewProjectID(),
		Name:        "relocation",
		State:       schema.ProjectInProgress,
		Priority:    schema.PriorityMedium,
		Responsible: owner,
		Members:     []ref.UserID{owner, alice, bob},
		Archived:    archived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if archived {
		project.State = schema.ProjectArchived
	}
	err := f.store.Write(context.Background(), func(tx *store.Tx) error {
		return tx.InsertProject(project)
	})
	if err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	return project.ID
}

func (f *fixture) seedTask(t *testing.T, projectID ref.ProjectID, state schema.TaskState, assignees ...ref.UserID) ref.TaskID {
	t.Helper()
	now := f.clock.Now()
	task := &schema.Task{
		ID:        ref.NewTaskID(),
		ProjectID: projectID,
		Title:     "pack boxes",
		State:     state,
		Priority:  schema.PriorityMedium,
		Assignees: assignees,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := f.store.Write(context.Background(), func(tx *store.Tx) error {
		return tx.InsertTask(task)
	})
	if err != nil {
		t.Fatalf("seeding task: %v", err)
	}
	return task.ID
}

func (f *fixture) getTask(t *testing.T, id ref.TaskID) *schema.Task {
	t.Helper()
	var task *schema.Task
	err := f.store.Read(context.Background(), func(tx *store.Tx) error {
		var err error
		task, err = tx.GetTask(id)
		return err
	})
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	return task
}

func (f *fixture) historyCount(t *testing.T, projectID ref.ProjectID) int {
	t.Helper()
	events, err := f.trail.List(context.Background(), projectID)
	if err != nil {
		t.Fatalf("trail.List: %v", err)
	}
	return len(events)
}

func TestCreateTaskRequiresPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)

	params := CreateTaskParams{ProjectID: projectID, Title: "unload truck"}

	if _, err := f.board.CreateTask(ctx, params, outcast); !wferr.IsPermission(err) {
		t.Fatalf("unprivileged create returned %v, want PermissionError", err)
	}

	// The responsible owner may create without the capability.
	if _, err := f.board.CreateTask(ctx, params, owner); err != nil {
		t.Fatalf("owner create: %v", err)
	}

	// A manage_projects grant works for anyone.
	f.checker.Grant(outcast, authorization.CapManageProjects)
	if _, err := f.board.CreateTask(ctx, params, outcast); err != nil {
		t.Fatalf("granted create: %v", err)
	}
}

func TestCreateTaskNotifiesAssigneesExceptActor(t *testing.T) {
	f := newFixture(t)
	projectID := f.seedProject(t, false)

	task, err := f.board.CreateTask(context.Background(), CreateTaskParams{
		ProjectID: projectID,
		Title:     "unload truck",
		Assignees: []ref.UserID{owner, alice, bob},
	}, owner)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.State != schema.TaskTodo {
		t.Errorf("new task state = %s, want todo", task.State)
	}

	msgs := f.dispatcher.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d notifications, want 2 (all assignees except actor)", len(msgs))
	}
	for _, msg := range msgs {
		if msg.To == owner {
			t.Errorf("actor %s was notified about their own action", owner)
		}
	}
}

func TestClaimCollapsesAssignees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)
	taskID := f.seedTask(t, projectID, schema.TaskTodo, alice, bob)

	if err := f.board.Claim(ctx, taskID, alice); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	task := f.getTask(t, taskID)
	if len(task.Assignees) != 1 || task.Assignees[0] != alice {
		t.Fatalf("assignees = %v, want [alice]", task.Assignees)
	}
	if task.State != schema.TaskTodo {
		t.Errorf("claim changed state to %s", task.State)
	}

	// Claiming again as the sole assignee is a no-op success.
	if err := f.board.Claim(ctx, taskID, alice); err != nil {
		t.Fatalf("idempotent claim: %v", err)
	}

	// Bob lost the race and is no longer assigned.
	if err := f.board.Claim(ctx, taskID, bob); !wferr.IsConflict(err) {
		t.Fatalf("claim by unassigned user returned %v, want ConflictError", err)
	}

	if n := f.historyCount(t, projectID); n != 0 {
		t.Errorf("claim wrote %d audit events, want 0", n)
	}
}

func TestStartGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)

	t.Run("assignee succeeds", func(t *testing.T) {
		taskID := f.seedTask(t, projectID, schema.TaskTodo, alice, bob)
		if err := f.board.Start(ctx, taskID, alice); err != nil {
			t.Fatalf("Start: %v", err)
		}
		task := f.getTask(t, taskID)
		if task.State != schema.TaskDoing {
			t.Errorf("state = %s, want doing", task.State)
		}
		if len(task.Assignees) != 1 || task.Assignees[0] != alice {
			t.Errorf("assignees = %v, want [alice]", task.Assignees)
		}
	})

	t.Run("non-assignee without capability fails", func(t *testing.T) {
		taskID := f.seedTask(t, projectID, schema.TaskTodo, alice)
		if err := f.board.Start(ctx, taskID, outcast); !wferr.IsPermission(err) {
			t.Fatalf("got %v, want PermissionError", err)
		}
	})

	t.Run("manage capability bypasses assignment", func(t *testing.T) {
		manager := ref.MustUserID("manager")
		f.checker.Grant(manager, authorization.CapManageProjects)
		taskID := f.seedTask(t, projectID, schema.TaskTodo, alice)
		if err := f.board.Start(ctx, taskID, manager); err != nil {
			t.Fatalf("Start: %v", err)
		}
		task := f.getTask(t, taskID)
		if len(task.Assignees) != 1 || task.Assignees[0] != manager {
			t.Errorf("assignees = %v, want [manager]", task.Assignees)
		}
	})

	t.Run("lost race is a conflict", func(t *testing.T) {
		taskID := f.seedTask(t, projectID, schema.TaskDoing, alice)
		if err := f.board.Start(ctx, taskID, alice); !wferr.IsConflict(err) {
			t.Fatalf("got %v, want ConflictError", err)
		}
	})
}

func TestFinishGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)

	taskID := f.seedTask(t, projectID, schema.TaskDoing, alice)

	// No management bypass for finish; only the assignee may.
	manager := ref.MustUserID("manager")
	f.checker.Grant(manager, authorization.CapManageProjects)
	if err := f.board.Finish(ctx, taskID, manager); !wferr.IsPermission(err) {
		t.Fatalf("non-assignee finish returned %v, want PermissionError", err)
	}

	if err := f.board.Finish(ctx, taskID, alice); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if task := f.getTask(t, taskID); task.State != schema.TaskReview {
		t.Errorf("state = %s, want review", task.State)
	}

	// Already in review; a second finish is a conflict.
	if err := f.board.Finish(ctx, taskID, alice); !wferr.IsConflict(err) {
		t.Fatalf("second finish returned %v, want ConflictError", err)
	}
}

func TestChangeStateAuditsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)
	taskID := f.seedTask(t, projectID, schema.TaskReview, alice, bob)

	if err := f.board.ChangeState(ctx, taskID, schema.TaskDone, outcast); !wferr.IsPermission(err) {
		t.Fatalf("unprivileged change returned %v, want PermissionError", err)
	}

	if err := f.board.ChangeState(ctx, taskID, schema.TaskDone, owner); err != nil {
		t.Fatalf("ChangeState: %v", err)
	}
	if task := f.getTask(t, taskID); task.State != schema.TaskDone {
		t.Errorf("state = %s, want done", task.State)
	}

	events, err := f.trail.List(ctx, projectID)
	if err != nil {
		t.Fatalf("trail.List: %v", err)
	}
	if len(events) != 1 || events[0].Kind != schema.EventTaskStateChange {
		t.Fatalf("events = %v, want one task-state-change", events)
	}

	// Both assignees plus the responsible owner, deduplicated.
	if msgs := f.dispatcher.Messages(); len(msgs) != 3 {
		t.Errorf("got %d notifications, want 3", len(msgs))
	}
}

func TestDeleteLeavesAuditEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)
	taskID := f.seedTask(t, projectID, schema.TaskTodo, alice)

	if err := f.board.Delete(ctx, taskID, owner); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	err := f.store.Read(ctx, func(tx *store.Tx) error {
		_, err := tx.GetTask(taskID)
		return err
	})
	if !wferr.IsNotFound(err) {
		t.Fatalf("task survived delete: %v", err)
	}
	if n := f.historyCount(t, projectID); n != 1 {
		t.Errorf("delete wrote %d audit events, want 1", n)
	}
}

func TestArchivedProjectRejectsMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, true)
	taskID := f.seedTask(t, projectID, schema.TaskTodo, alice)

	if _, err := f.board.CreateTask(ctx, CreateTaskParams{ProjectID: projectID, Title: "x"}, owner); !wferr.IsConflict(err) {
		t.Errorf("create on archived returned %v, want ConflictError", err)
	}
	if err := f.board.Start(ctx, taskID, alice); !wferr.IsConflict(err) {
		t.Errorf("start on archived returned %v, want ConflictError", err)
	}
	if err := f.board.Delete(ctx, taskID, owner); !wferr.IsConflict(err) {
		t.Errorf("delete on archived returned %v, want ConflictError", err)
	}
}

func TestDueSoonAndReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := f.seedProject(t, false)

	due := f.clock.Now().Add(48 * time.Hour)
	far := f.clock.Now().Add(30 * 24 * time.Hour)

	seed := func(title string, state schema.TaskState, dueDate time.Time) ref.TaskID {
		now := f.clock.Now()
		task := &schema.Task{
			ID:        ref.NewTaskID(),
			ProjectID: projectID,
			Title:     title,
			State:     state,
			Priority:  schema.PriorityMedium,
			Assignees: []ref.UserID{alice},
			DueDate:   &dueDate,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := f.store.Write(ctx, func(tx *store.Tx) error { return tx.InsertTask(task) })
		if err != nil {
			t.Fatalf("seeding task: %v", err)
		}
		return task.ID
	}
	urgent := seed("urgent", schema.TaskDoing, due)
	seed("distant", schema.TaskTodo, far)
	seed("finished", schema.TaskDone, due)

	tasks, err := f.board.DueSoon(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("DueSoon: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != urgent {
		t.Fatalf("DueSoon = %v, want just the urgent task", tasks)
	}

	if err := f.board.RecordReminder(ctx, urgent); err != nil {
		t.Fatalf("RecordReminder: %v", err)
	}
	events, err := f.trail.List(ctx, projectID)
	if err != nil {
		t.Fatalf("trail.List: %v", err)
	}
	if len(events) != 1 || events[0].Kind != schema.EventReminder {
		t.Fatalf("events = %v, want one reminder", events)
	}
	if !events[0].Actor.IsZero() {
		t.Errorf("reminder has actor %s, want system (zero)", events[0].Actor)
	}
	if msgs := f.dispatcher.Messages(); len(msgs) != 1 || msgs[0].To != alice {
		t.Errorf("reminder notifications = %v, want one to alice", msgs)
	}
}
