package events

import (
	"time"

	"github.com/spec-kit/bugtrack-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBugCreated            EventType = "bug_created"
	EventBugUpdated            EventType = "bug_updated"
	EventBugStatusChanged      EventType = "bug_status_changed"
	EventBugDeleted            EventType = "bug_deleted"
	EventModuleCreated         EventType = "module_created"
	EventProjectMembersChanged EventType = "project_members_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BugCreatedPayload payload.
type BugCreatedPayload struct {
	BugID     string   `json:"bug_id"`
	ProjectID string   `json:"project_id"`
	ModuleID  string   `json:"module_id"`
	Title     string   `json:"title"`
	Assignees []string `json:"assignees,omitempty"`
}

// BugUpdatedPayload payload.
type BugUpdatedPayload struct {
	BugID     string   `json:"bug_id"`
	Assignees []string `json:"assignees,omitempty"`
}

// BugStatusChangedPayload payload.
type BugStatusChangedPayload struct {
	BugID     string           `json:"bug_id"`
	OldStatus domain.BugStatus `json:"old_status"`
	NewStatus domain.BugStatus `json:"new_status"`
	Note      string           `json:"note,omitempty"`
}

// BugDeletedPayload payload.
type BugDeletedPayload struct {
	BugID     string `json:"bug_id"`
	ProjectID string `json:"project_id"`
}

// ModuleCreatedPayload payload.
type ModuleCreatedPayload struct {
	ModuleID  string `json:"module_id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// ProjectMembersChangedPayload payload.
type ProjectMembersChangedPayload struct {
	ProjectID string   `json:"project_id"`
	Members   []string `json:"members"`
}
