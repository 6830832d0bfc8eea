// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package authorization decides whether a user may perform a guarded
// workflow operation.
//
// Workflow packages depend only on the Checker interface.
// Relationship-based rules (task assignee, project responsible) are
// NOT checked here; those live in the workflow guards because they
// depend on entity state read inside the same transaction. Checker
// answers only capability questions: "may this user manage
// projects", "may this user approve hours".
package authorization
