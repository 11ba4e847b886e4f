package domain

import "time"

// Role enumerates the fixed set of user roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTester    Role = "tester"
	RoleDeveloper Role = "developer"
)

// Valid reports whether the role is one of the known constants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTester, RoleDeveloper:
		return true
	}
	return false
}

// User is an account that can authenticate and act on projects.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
