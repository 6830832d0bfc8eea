// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a fixed-size pool of SQLite
// connections with the engine's standard pragmas applied.
//
// The workflow store keeps its five entity tables in one SQLite
// database. WAL mode gives concurrent readers against a single
// writer, and foreign keys are enforced so that a project's task,
// member, and assignee rows cascade correctly. Each goroutine must
// Take its own connection and Put it back when done.
package sqlitepool
