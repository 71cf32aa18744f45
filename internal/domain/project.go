package domain

import "time"

// Project groups issues and the users allowed to work on them.
type Project struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	MemberIDs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOwner reports whether userID owns the project.
func (p *Project) IsOwner(userID string) bool {
	return p != nil && userID != "" && p.OwnerID == userID
}

// IsMember reports whether userID may access the project. The owner always counts as a member,
// whether or not they appear in MemberIDs.
func (p *Project) IsMember(userID string) bool {
	if p.IsOwner(userID) {
		return true
	}
	if p == nil || userID == "" {
		return false
	}
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
