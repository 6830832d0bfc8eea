// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskboard implements the task state machine and its guarded
// transitions.
//
// The board distinguishes two kinds of transitions. The worker path
// (claim, start, finish) is assignee-scoped: it lets a claimed worker
// progress their own task without management privilege, and every
// guard is re-checked inside the write transaction so a lost race
// surfaces as a ConflictError instead of a silent clobber. The
// privileged path (ChangeState, Delete) is the escape hatch for
// managers and the project's responsible owner and moves a task
// between any of the four states.
package taskboard
