package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/events"
	"github.com/spec-kit/sprintflow/internal/repository"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

// IssueService coordinates issue workflows. Every operation is gated by membership on the
// issue's project.
type IssueService struct {
	issues   repository.IssueRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	events   publisher
	logger   *zap.Logger
}

// IssueDependencies bundles repositories for issue service.
type IssueDependencies struct {
	IssueRepo   repository.IssueRepository
	ProjectRepo repository.ProjectRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	ProjectID   string
	Title       string
	Description string
	Priority    domain.IssuePriority
	AssigneeID  *string
	DueDate     *time.Time
}

// IssueUpdateInput describes a partial update. Nil pointers leave fields unchanged. The Set flags
// mark assignee and due date as present, so a nil value with Set clears the field.
type IssueUpdateInput struct {
	Title       *string
	Description *string
	Status      *domain.IssueStatus
	Priority    *domain.IssuePriority
	AssigneeSet bool
	AssigneeID  *string
	DueDateSet  bool
	DueDate     *time.Time
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:   deps.IssueRepo,
		projects: deps.ProjectRepo,
		users:    deps.UserRepo,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:   logger,
	}
}

// CreateIssue files a new issue in a project the user belongs to.
func (s *IssueService) CreateIssue(ctx context.Context, userID string, input IssueCreateInput) (*domain.Issue, error) {
	if _, err := s.memberProject(ctx, userID, input.ProjectID); err != nil {
		return nil, err
	}
	assignee, err := s.resolveAssignee(ctx, input.AssigneeID)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		ProjectID:   input.ProjectID,
		ReporterID:  userID,
		AssigneeID:  assignee,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.IssueStatusBacklog,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}
	if issue.Priority == "" {
		issue.Priority = domain.IssuePriorityMedium
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventIssueCreated,
		ProjectID: issue.ProjectID,
		IssueID:   issue.ID,
		ActorID:   userID,
		Payload:   events.IssueCreatedPayload{Title: issue.Title, Priority: issue.Priority},
	})
	if issue.AssigneeID != nil {
		s.publishAssigned(ctx, userID, issue)
	}
	return issue, nil
}

// ListIssues returns a project's issues, newest first.
func (s *IssueService) ListIssues(ctx context.Context, userID, projectID string) ([]domain.Issue, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, apperrors.NewFieldValidationError("projectId", "projectId is required")
	}
	if _, err := s.memberProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.issues.ListByProject(ctx, projectID)
}

// GetIssue returns an issue from a project the user belongs to.
func (s *IssueService) GetIssue(ctx context.Context, userID, issueID string) (*domain.Issue, error) {
	issue, _, err := s.memberIssue(ctx, userID, issueID)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// UpdateIssue applies a partial update. Any project member may update.
func (s *IssueService) UpdateIssue(ctx context.Context, userID, issueID string, input IssueUpdateInput) (*domain.Issue, error) {
	issue, _, err := s.memberIssue(ctx, userID, issueID)
	if err != nil {
		return nil, err
	}

	previousStatus := issue.Status
	previousAssignee := issue.AssigneeID
	var fields []string

	if input.Title != nil {
		issue.Title = strings.TrimSpace(*input.Title)
		fields = append(fields, "title")
	}
	if input.Description != nil {
		issue.Description = strings.TrimSpace(*input.Description)
		fields = append(fields, "description")
	}
	if input.Status != nil {
		issue.Status = *input.Status
		fields = append(fields, "status")
	}
	if input.Priority != nil {
		issue.Priority = *input.Priority
		fields = append(fields, "priority")
	}
	if input.AssigneeSet {
		assignee, err := s.resolveAssignee(ctx, input.AssigneeID)
		if err != nil {
			return nil, err
		}
		issue.AssigneeID = assignee
		fields = append(fields, "assigneeId")
	}
	if input.DueDateSet {
		issue.DueDate = input.DueDate
		fields = append(fields, "dueDate")
	}

	if len(fields) == 0 {
		return issue, nil
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("issue", nil)
		}
		return nil, err
	}

	s.events.publish(ctx, events.Event{
		Type:      events.EventIssueUpdated,
		ProjectID: issue.ProjectID,
		IssueID:   issue.ID,
		ActorID:   userID,
		Payload: events.IssueUpdatedPayload{
			Fields:    fields,
			OldStatus: previousStatus,
			NewStatus: issue.Status,
		},
	})
	if issue.AssigneeID != nil && !sameAssignee(previousAssignee, issue.AssigneeID) {
		s.publishAssigned(ctx, userID, issue)
	}
	return issue, nil
}

// DeleteIssue removes an issue. The requester must be a member and the owner of the project.
func (s *IssueService) DeleteIssue(ctx context.Context, userID, issueID string) error {
	issue, project, err := s.memberIssue(ctx, userID, issueID)
	if err != nil {
		return err
	}
	if !project.IsOwner(userID) {
		return apperrors.NewForbidden("only the project owner can delete issues")
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("issue", nil)
		}
		return err
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventIssueDeleted,
		ProjectID: issue.ProjectID,
		IssueID:   issue.ID,
		ActorID:   userID,
	})
	return nil
}

func (s *IssueService) memberIssue(ctx context.Context, userID, issueID string) (*domain.Issue, *domain.Project, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewNotFound("issue", nil)
	}
	if err != nil {
		return nil, nil, err
	}
	project, err := s.memberProject(ctx, userID, issue.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return issue, project, nil
}

func (s *IssueService) memberProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("project", nil)
	}
	if err != nil {
		return nil, err
	}
	if !project.IsMember(userID) {
		return nil, apperrors.NewForbidden("you are not a member of this project")
	}
	return project, nil
}

// resolveAssignee returns nil for an absent or empty id and checks that any other id names a user.
func (s *IssueService) resolveAssignee(ctx context.Context, assigneeID *string) (*string, error) {
	if assigneeID == nil {
		return nil, nil
	}
	id := strings.TrimSpace(*assigneeID)
	if id == "" {
		return nil, nil
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewFieldValidationError("assigneeId", "assignee does not exist")
		}
		return nil, err
	}
	return &id, nil
}

func (s *IssueService) publishAssigned(ctx context.Context, actorID string, issue *domain.Issue) {
	s.events.publish(ctx, events.Event{
		Type:      events.EventIssueAssigned,
		ProjectID: issue.ProjectID,
		IssueID:   issue.ID,
		ActorID:   actorID,
		Payload:   events.IssueAssignedPayload{AssigneeID: *issue.AssigneeID, Title: issue.Title},
	})
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
