// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time for testability.
//
// Every audit timestamp and approval decision stamp in the engine
// comes from an injected Clock rather than time.Now, so tests can pin
// the instant a transition is recorded at. Production code injects
// Real(); tests inject Fake() and advance it explicitly.
package clock
