// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the workflow engine's domain entities and
// their closed state enums.
//
// Five entities: Project, Task, HistoryEvent, Invoice, and
// WorkHourEntry. Each state field is a dedicated string type with a
// Parse constructor that rejects unknown values, and each guarded
// state machine has an explicit transition predicate. Nothing in this
// package touches storage: entities are plain values, and all
// mutation goes through the workflow components.
//
// Monetary amounts and hour quantities are shopspring decimals; the
// engine never does float arithmetic on money.
package schema
