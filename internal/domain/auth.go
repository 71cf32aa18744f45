package domain

import "time"

// Session describes an issued session token.
type Session struct {
	ID        string
	UserID    string
	Role      UserRole
	IssuedAt  time.Time
	ExpiresAt time.Time
}
