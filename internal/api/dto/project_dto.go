package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/sprintflow/internal/domain"
)

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"min=2,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// Normalize trims user supplied text.
func (r *CreateProjectRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// AddMemberRequest payload for sharing a project with another user.
type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Normalize canonicalizes the email.
func (r *AddMemberRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// ProjectResponse describes a project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	MemberIDs   []string  `json:"memberIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProjectResponse projects a project for API responses.
func NewProjectResponse(project *domain.Project) ProjectResponse {
	members := project.MemberIDs
	if members == nil {
		members = []string{}
	}
	return ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		MemberIDs:   members,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// NewProjectResponses projects a list.
func NewProjectResponses(projects []domain.Project) []ProjectResponse {
	items := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, NewProjectResponse(&projects[i]))
	}
	return items
}
