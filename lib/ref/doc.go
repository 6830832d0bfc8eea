// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier value types for the
// workflow engine's entities.
//
// Each ID type is an immutable value wrapping a non-empty string.
// Entity IDs minted by this module carry a short type prefix
// ("prj-", "tsk-", "inv-", "whe-") followed by a random UUID, which
// the Parse constructors enforce. User IDs are opaque references
// owned by the external identity system: any non-empty string
// without whitespace is accepted.
//
// The zero value of every type is invalid; use IsZero to check.
package ref
