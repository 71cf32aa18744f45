package domain

import "time"

// IssueStatus enumerates workflow states for issues.
type IssueStatus string

const (
	IssueStatusBacklog    IssueStatus = "BACKLOG"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusReview     IssueStatus = "REVIEW"
	IssueStatusDone       IssueStatus = "DONE"
)

// Valid reports whether the status is a known value.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusBacklog, IssueStatusInProgress, IssueStatusReview, IssueStatusDone:
		return true
	}
	return false
}

// IssuePriority enumerates issue urgency.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "LOW"
	IssuePriorityMedium IssuePriority = "MEDIUM"
	IssuePriorityHigh   IssuePriority = "HIGH"
)

// Valid reports whether the priority is a known value.
func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh:
		return true
	}
	return false
}

// Issue is a unit of work tracked inside a project.
type Issue struct {
	ID          string
	ProjectID   string
	ReporterID  string
	AssigneeID  *string
	Title       string
	Description string
	Status      IssueStatus
	Priority    IssuePriority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
