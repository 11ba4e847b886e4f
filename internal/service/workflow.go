package service

import (
	"fmt"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// allowedTransitions is the fixed bug status workflow. There is no absorbing
// state: closed bugs can be reopened indefinitely.
var allowedTransitions = map[domain.BugStatus][]domain.BugStatus{
	domain.BugStatusOpen:     {domain.BugStatusSolved},
	domain.BugStatusSolved:   {domain.BugStatusClosed, domain.BugStatusReopened},
	domain.BugStatusClosed:   {domain.BugStatusReopened},
	domain.BugStatusReopened: {domain.BugStatusSolved},
}

func isValidTransition(current, next domain.BugStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// canPerformTransition decides whether the actor may drive this specific
// transition. Closing is reserved for testers (or admins) who are also
// reporter or assignee; developers can never close.
func canPerformTransition(actor Actor, bug *domain.Bug, to domain.BugStatus) bool {
	if actor.IsAdmin() {
		return true
	}
	if bug.ReportedBy != actor.ID && !bug.HasAssignee(actor.ID) {
		return false
	}
	if to == domain.BugStatusClosed && actor.Role != domain.RoleTester {
		return false
	}
	return true
}

// checkTransition runs the full state-machine gate for a requested change.
// The from guard doubles as an optimistic-concurrency signal: a stale from
// is a conflict the caller resolves by re-reading, never a retry here.
func checkTransition(actor Actor, bug *domain.Bug, from, to domain.BugStatus) error {
	if bug.Status != from {
		return apperrors.NewConflict("from status mismatch", map[string]any{
			"current": string(bug.Status),
			"from":    string(from),
		})
	}
	if !isValidTransition(from, to) {
		return apperrors.NewInvalidTransition(
			fmt.Sprintf("cannot transition from %s to %s", from, to), nil)
	}
	if !canPerformTransition(actor, bug, to) {
		return apperrors.NewForbidden("forbidden for this transition")
	}
	return nil
}
