// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package wferr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed input or a business rule violated
// before any state change. The operation that returns it has written
// nothing.
type ValidationError struct {
	// Entity is the kind of entity the input targeted ("project",
	// "task", "invoice", "work-hour entry").
	Entity string

	// ID identifies the entity, when one exists yet.
	ID string

	// Reason describes the violated rule.
	Reason string

	// Missing lists required items absent from the input, such as the
	// titles of pending tasks without a reopening due date. Empty for
	// single-field violations.
	Missing []string
}

func (e *ValidationError) Error() string {
	var builder strings.Builder
	builder.WriteString("validation: ")
	if e.Entity != "" {
		builder.WriteString(e.Entity)
		if e.ID != "" {
			fmt.Fprintf(&builder, " %s", e.ID)
		}
		builder.WriteString(": ")
	}
	builder.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&builder, " (missing: %s)", strings.Join(e.Missing, ", "))
	}
	return builder.String()
}

// PermissionError reports that the actor lacks the capability or
// relationship an operation requires.
type PermissionError struct {
	// Actor is the user attempting the operation.
	Actor string

	// Capability names the missing capability or relationship
	// ("manage_projects", "approve_hours", "assignee",
	// "responsible owner").
	Capability string

	// Entity and ID identify what the actor tried to touch.
	Entity string
	ID     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission: %s requires %q on %s %s",
		e.Actor, e.Capability, e.Entity, e.ID)
}

// ConflictError reports a precondition invalidated by a concurrent
// change: the entity was not in the expected state by commit time, or
// a once-only decision was already made.
type ConflictError struct {
	// Entity and ID identify the contended entity.
	Entity string
	ID     string

	// Expected and Actual describe the state guard that failed, when
	// the conflict is a state mismatch.
	Expected string
	Actual   string

	// Reason carries conflicts that are not state mismatches, such as
	// "actor is not assigned".
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("conflict: %s %s: %s", e.Entity, e.ID, e.Reason)
	}
	return fmt.Sprintf("conflict: %s %s is %q, expected %q",
		e.Entity, e.ID, e.Actual, e.Expected)
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %s", e.Entity, e.ID)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPermission reports whether err is or wraps a PermissionError.
func IsPermission(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

// IsConflict reports whether err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
