package events

import (
	"time"

	"github.com/spec-kit/sprintflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProjectCreated     EventType = "project_created"
	EventProjectDeleted     EventType = "project_deleted"
	EventProjectMemberAdded EventType = "project_member_added"
	EventIssueCreated       EventType = "issue_created"
	EventIssueUpdated       EventType = "issue_updated"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueDeleted       EventType = "issue_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProjectID string      `json:"projectId"`
	IssueID   string      `json:"issueId,omitempty"`
	ActorID   string      `json:"actorId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ProjectCreatedPayload payload.
type ProjectCreatedPayload struct {
	Name string `json:"name"`
}

// ProjectDeletedPayload payload.
type ProjectDeletedPayload struct {
	Name string `json:"name"`
}

// ProjectMemberAddedPayload payload.
type ProjectMemberAddedPayload struct {
	UserID string `json:"userId"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title    string               `json:"title"`
	Priority domain.IssuePriority `json:"priority"`
}

// IssueUpdatedPayload lists the fields a partial update touched.
type IssueUpdatedPayload struct {
	Fields    []string           `json:"fields"`
	OldStatus domain.IssueStatus `json:"oldStatus"`
	NewStatus domain.IssueStatus `json:"newStatus"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AssigneeID string `json:"assigneeId"`
	Title      string `json:"title"`
}
