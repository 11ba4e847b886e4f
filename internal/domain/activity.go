package domain

import "time"

// ActivityAction captures what kind of mutation an audit entry records.
type ActivityAction string

const (
	ActionCreate       ActivityAction = "create"
	ActionUpdate       ActivityAction = "update"
	ActionStatusChange ActivityAction = "status_change"
	ActionDelete       ActivityAction = "delete"
	ActionCreateModule ActivityAction = "create_module"
)

// Activity is an immutable audit record, appended on bug and module
// mutations and never updated or deleted.
type Activity struct {
	ID        string
	BugID     *string
	ModuleID  *string
	ActorID   string
	Action    ActivityAction
	From      map[string]any
	To        map[string]any
	Note      string
	CreatedAt time.Time
}
