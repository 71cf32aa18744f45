package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/events"
	"github.com/spec-kit/sprintflow/internal/repository"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

// ProjectService coordinates project workflows and membership checks.
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	events   publisher
	logger   *zap.Logger
}

// ProjectDependencies bundles repositories for project service.
type ProjectDependencies struct {
	ProjectRepo repository.ProjectRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// ProjectCreateInput describes project creation payload.
type ProjectCreateInput struct {
	Name        string
	Description string
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projects: deps.ProjectRepo,
		users:    deps.UserRepo,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:   logger,
	}
}

// CreateProject creates a project owned by userID, who also becomes its first member.
func (s *ProjectService) CreateProject(ctx context.Context, userID string, input ProjectCreateInput) (*domain.Project, error) {
	project := &domain.Project{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     userID,
		MemberIDs:   []string{userID},
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("owner_id", userID))
	s.events.publish(ctx, events.Event{
		Type:      events.EventProjectCreated,
		ProjectID: project.ID,
		ActorID:   userID,
		Payload:   events.ProjectCreatedPayload{Name: project.Name},
	})
	return project, nil
}

// ListProjects returns the projects userID owns or belongs to, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.projects.ListForUser(ctx, userID)
}

// GetProject returns a project the user is a member of.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	return s.memberProject(ctx, userID, projectID)
}

// DeleteProject removes a project and its issues. Only the owner may delete.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID string) error {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.IsOwner(userID) {
		return apperrors.NewForbidden("only the project owner can delete the project")
	}
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("project", nil)
		}
		return err
	}
	s.logger.Info("project deleted", zap.String("project_id", project.ID), zap.String("owner_id", userID))
	s.events.publish(ctx, events.Event{
		Type:      events.EventProjectDeleted,
		ProjectID: project.ID,
		ActorID:   userID,
		Payload:   events.ProjectDeletedPayload{Name: project.Name},
	})
	return nil
}

// AddMember adds the user registered under email to the project. Only the owner may add members;
// adding an existing member leaves the project unchanged.
func (s *ProjectService) AddMember(ctx context.Context, userID, projectID, email string) (*domain.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwner(userID) {
		return nil, apperrors.NewForbidden("only the project owner can add members")
	}
	member, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return nil, err
	}
	if project.IsMember(member.ID) {
		return project, nil
	}
	if err := s.projects.AddMember(ctx, project.ID, member.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("project", nil)
		}
		return nil, err
	}
	s.events.publish(ctx, events.Event{
		Type:      events.EventProjectMemberAdded,
		ProjectID: project.ID,
		ActorID:   userID,
		Payload:   events.ProjectMemberAddedPayload{UserID: member.ID},
	})
	return s.loadProject(ctx, project.ID)
}

// memberProject loads a project and checks membership. A missing project is reported before a
// failed membership check.
func (s *ProjectService) memberProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsMember(userID) {
		return nil, apperrors.NewForbidden("you are not a member of this project")
	}
	return project, nil
}

func (s *ProjectService) loadProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("project", nil)
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}
