// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle is the composition root of the project workflow.
//
// It owns the project state machine, the closure reconciliation
// against invoiced amounts, the all-or-nothing reopening of finished
// projects, and the invoice movements. Every operation runs its
// guards, writes, and audit append inside one write transaction;
// notifications go out only after the commit.
//
// Projects are never hard-deleted. Archival is the terminal,
// non-destructive end state, and an archived project rejects every
// further mutation.
package lifecycle
