// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package wferr defines the workflow engine's error taxonomy.
//
// Every operation returns one of four structured error types:
//
//   - ValidationError: malformed input or a business rule violated
//     up front (missing reopening date, non-positive duration,
//     missing incomplete-closure reason).
//   - PermissionError: the actor lacks the required capability or
//     relationship to the entity.
//   - ConflictError: a precondition no longer holds — the entity is
//     not in the expected state, an entry was already decided, the
//     actor is no longer assigned. Conflicts are never resolved by
//     re-reading and retrying inside the engine; the caller must
//     resubmit intent.
//   - NotFoundError: a referenced entity does not exist.
//
// Each type carries the entity kind, its ID, and expected-vs-actual
// detail so the caller can render an actionable message. Use
// errors.As to retrieve the typed value, or the Is* helpers for a
// bare classification check.
package wferr
