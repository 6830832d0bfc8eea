// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package authorization

import (
	"sync"

	"github.com/workline-foundation/workline/lib/ref"
)

// Capability names a grantable permission.
type Capability string

const (
	// CapManageProjects covers project lifecycle mutations, task
	// administration, and invoice movements.
	CapManageProjects Capability = "manage_projects"

	// CapApproveHours covers deciding work-hour entries.
	CapApproveHours Capability = "approve_hours"
)

// Checker reports whether a user holds a capability, optionally
// scoped to one project. Implementations must treat a zero project ID
// as "any project".
type Checker interface {
	HasCapability(actor ref.UserID, capability Capability, project ref.ProjectID) bool
}

// StaticChecker is an in-memory Checker with explicit grants. Grants
// are either global or scoped to a single project; a global grant
// covers every project.
//
// StaticChecker is safe for concurrent use.
type StaticChecker struct {
	mu     sync.RWMutex
	global map[ref.UserID]map[Capability]bool
	scoped map[ref.UserID]map[ref.ProjectID]map[Capability]bool
}

// NewStaticChecker returns a checker with no grants. Every
// HasCapability call answers false until Grant is called.
func NewStaticChecker() *StaticChecker {
	return &StaticChecker{
		global: make(map[ref.UserID]map[Capability]bool),
		scoped: make(map[ref.UserID]map[ref.ProjectID]map[Capability]bool),
	}
}

// Grant gives the user a capability on every project.
func (c *StaticChecker) Grant(user ref.UserID, capability Capability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.global[user] == nil {
		c.global[user] = make(map[Capability]bool)
	}
	c.global[user][capability] = true
}

// GrantOnProject gives the user a capability on one project only.
func (c *StaticChecker) GrantOnProject(user ref.UserID, capability Capability, project ref.ProjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scoped[user] == nil {
		c.scoped[user] = make(map[ref.ProjectID]map[Capability]bool)
	}
	if c.scoped[user][project] == nil {
		c.scoped[user][project] = make(map[Capability]bool)
	}
	c.scoped[user][project][capability] = true
}

// HasCapability implements Checker.
func (c *StaticChecker) HasCapability(actor ref.UserID, capability Capability, project ref.ProjectID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.global[actor][capability] {
		return true
	}
	if project.IsZero() {
		return false
	}
	return c.scoped[actor][project][capability]
}
