package domain

import "time"

// Module is a named sub-division of a project under which bugs are filed.
type Module struct {
	ID        string
	ProjectID string
	Name      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
