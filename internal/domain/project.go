package domain

import "time"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project is the top-level container of work. Membership is the unit of
// access-control scope for everything underneath it.
type Project struct {
	ID          string
	Name        string
	Description string
	Members     []string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether the user id is in the membership set.
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.Members {
		if id == userID {
			return true
		}
	}
	return false
}
