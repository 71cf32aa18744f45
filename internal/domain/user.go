package domain

import "time"

// UserRole represents the account-level role of a user.
type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleMember UserRole = "MEMBER"
)

// Valid reports whether the role is a known value.
func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleMember
}

// User is the domain model for registered accounts.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
