// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit maintains the append-only history trail of each
// project.
//
// Every lifecycle mutation leaves exactly one event, appended inside
// the same transaction as the mutation itself so the trail and the
// state can never disagree. Events are immutable and are never
// deleted: the trail outlives the tasks and invoices it describes.
package audit
