// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify delivers best-effort notifications to users after a
// workflow operation commits.
//
// Delivery is fire-and-forget: a failed or impossible delivery never
// fails the operation that triggered it. The Notifier logs the
// failure and moves on. Workflow packages collect messages while the
// transaction is open and hand them to Notifier.Send only after the
// commit succeeds, so a rolled-back operation notifies nobody.
package notify
