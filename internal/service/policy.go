package service

import "github.com/spec-kit/bugtrack-service/internal/domain"

// Actor is the authenticated principal every operation receives.
type Actor struct {
	ID   string
	Role domain.Role
}

// IsAdmin reports whether the actor bypasses membership and role checks.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// isProjectMember is the membership oracle: a pure lookup against the
// project's member set. Admins are handled by the callers, not here.
func isProjectMember(project *domain.Project, userID string) bool {
	return project.HasMember(userID)
}

// The functions below form the access policy evaluator. Each one is a pure
// function of (actor, resource, parent project); callers must not apply any
// mutation when the answer is false.

// canViewProject gates reads of a project, its modules, and its bugs.
func canViewProject(actor Actor, project *domain.Project) bool {
	if actor.IsAdmin() {
		return true
	}
	return isProjectMember(project, actor.ID)
}

// canCreateModule allows admins anywhere and testers on their own projects.
func canCreateModule(actor Actor, project *domain.Project) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.Role != domain.RoleTester {
		return false
	}
	return isProjectMember(project, actor.ID)
}

// canCreateBug allows admins anywhere and testers on their own projects.
// Developers never report bugs.
func canCreateBug(actor Actor, project *domain.Project) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.Role != domain.RoleTester {
		return false
	}
	return isProjectMember(project, actor.ID)
}

// canEditBug gates general-field updates: reporter, assignee, or admin.
func canEditBug(actor Actor, bug *domain.Bug) bool {
	if actor.IsAdmin() {
		return true
	}
	return bug.ReportedBy == actor.ID || bug.HasAssignee(actor.ID)
}

// canEditAssignees is wider than canEditBug: a tester who is a project
// member may reassign even when neither reporter nor assignee.
func canEditAssignees(actor Actor, bug *domain.Bug, project *domain.Project) bool {
	if canEditBug(actor, bug) {
		return true
	}
	return actor.Role == domain.RoleTester && isProjectMember(project, actor.ID)
}

// canDeleteBug allows the reporter or an admin only.
func canDeleteBug(actor Actor, bug *domain.Bug) bool {
	if actor.IsAdmin() {
		return true
	}
	return bug.ReportedBy == actor.ID
}

// assigneesWithinMembers checks the invariant that assignees stay a subset
// of the owning project's members, returning the offending ids.
func assigneesWithinMembers(project *domain.Project, assignees []string) []string {
	var outside []string
	for _, id := range assignees {
		if !project.HasMember(id) {
			outside = append(outside, id)
		}
	}
	return outside
}
