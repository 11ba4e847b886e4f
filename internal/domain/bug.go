package domain

import "time"

// BugStatus enumerates lifecycle states for bugs.
type BugStatus string

const (
	BugStatusOpen     BugStatus = "open"
	BugStatusSolved   BugStatus = "solved"
	BugStatusClosed   BugStatus = "closed"
	BugStatusReopened BugStatus = "reopened"
)

// Valid reports whether the status is one of the known constants.
func (s BugStatus) Valid() bool {
	switch s {
	case BugStatusOpen, BugStatusSolved, BugStatusClosed, BugStatusReopened:
		return true
	}
	return false
}

// Bug is a trackable defect record. Assignees must be a subset of the owning
// project's members at the time of every write.
type Bug struct {
	ID          string
	ProjectID   string
	ModuleID    string
	Title       string
	Description string
	Status      BugStatus
	ReportedBy  string
	Assignees   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasAssignee reports whether the user id is in the assignee set.
func (b *Bug) HasAssignee(userID string) bool {
	for _, id := range b.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}
