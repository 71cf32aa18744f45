package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/spec-kit/sprintflow/internal/domain"
)

// NullableString distinguishes an absent JSON field from an explicit null.
type NullableString struct {
	Set   bool
	Null  bool
	Value string
}

// UnmarshalJSON records presence; encoding/json calls it for null values too.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		n.Value = ""
		return nil
	}
	n.Null = false
	return json.Unmarshal(data, &n.Value)
}

// Present reports whether a non-null value was supplied.
func (n NullableString) Present() bool {
	return n.Set && !n.Null
}

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string `json:"title" validate:"min=2,max=200"`
	Description string `json:"description" validate:"max=5000"`
	ProjectID   string `json:"projectId" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID  string `json:"assigneeId"`
	DueDate     string `json:"dueDate" validate:"omitempty,issuedate"`
}

// Normalize trims user supplied text.
func (r *CreateIssueRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	r.AssigneeID = strings.TrimSpace(r.AssigneeID)
	r.DueDate = strings.TrimSpace(r.DueDate)
}

// UpdateIssueRequest carries a partial update; nil or unset fields are left unchanged.
type UpdateIssueRequest struct {
	Title       *string        `json:"title" validate:"omitnil,min=2,max=200"`
	Description *string        `json:"description" validate:"omitnil,max=5000"`
	Status      *string        `json:"status" validate:"omitnil,oneof=BACKLOG IN_PROGRESS REVIEW DONE"`
	Priority    *string        `json:"priority" validate:"omitnil,oneof=LOW MEDIUM HIGH"`
	AssigneeID  NullableString `json:"assigneeId"`
	DueDate     NullableString `json:"dueDate" validate:"omitempty,issuedate"`
}

// Normalize trims user supplied text.
func (r *UpdateIssueRequest) Normalize() {
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
	if r.Description != nil {
		trimmed := strings.TrimSpace(*r.Description)
		r.Description = &trimmed
	}
	r.AssigneeID.Value = strings.TrimSpace(r.AssigneeID.Value)
	r.DueDate.Value = strings.TrimSpace(r.DueDate.Value)
}

// IssueResponse describes an issue.
type IssueResponse struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"projectId"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Status      domain.IssueStatus   `json:"status"`
	Priority    domain.IssuePriority `json:"priority"`
	ReporterID  string               `json:"reporterId"`
	AssigneeID  *string              `json:"assigneeId"`
	DueDate     *time.Time           `json:"dueDate"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// NewIssueResponse projects an issue for API responses.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:          issue.ID,
		ProjectID:   issue.ProjectID,
		Title:       issue.Title,
		Description: issue.Description,
		Status:      issue.Status,
		Priority:    issue.Priority,
		ReporterID:  issue.ReporterID,
		AssigneeID:  issue.AssigneeID,
		DueDate:     issue.DueDate,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}

// NewIssueResponses projects a list.
func NewIssueResponses(issues []domain.Issue) []IssueResponse {
	items := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, NewIssueResponse(&issues[i]))
	}
	return items
}
