// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists the workflow engine's five entities in
// SQLite and provides the transactional boundary every guarded
// operation runs inside.
//
// Writes use BEGIN IMMEDIATE transactions: the write lock is taken
// up front, so a guard check ("is this task still todo?") and the
// writes it protects see a single consistent database state, and
// concurrent guarded operations serialize instead of interleaving.
// A transition whose precondition fails inside the transaction
// returns a conflict and commits nothing.
//
// Decimal amounts are stored as canonical strings and summed in Go;
// no float arithmetic touches money. Timestamps are RFC 3339 text in
// UTC; calendar dates are YYYY-MM-DD text.
package store
