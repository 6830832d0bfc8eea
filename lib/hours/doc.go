// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package hours implements the work-hour approval workflow.
//
// An entry is submitted in state loaded and decided exactly once:
// loaded to approved or loaded to rejected. Re-deciding a decided
// entry is a ConflictError. The worked duration is either supplied
// directly or derived from start and end times of day; a non-positive
// duration never reaches the store.
package hours
