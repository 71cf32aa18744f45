// Package memory provides in-process repository implementations used for local development
// without Postgres or Redis and as the backing store of the test suites.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/repository"
)

// Store holds all entities behind a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	projects map[string]domain.Project
	issues   map[string]domain.Issue
	revoked  map[string]time.Time
	now      func() time.Time
	last     time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		projects: make(map[string]domain.Project),
		issues:   make(map[string]domain.Issue),
		revoked:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Users returns a UserRepository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepository{s} }

// Projects returns a ProjectRepository view of the store.
func (s *Store) Projects() repository.ProjectRepository { return projectRepository{s} }

// Issues returns an IssueRepository view of the store.
func (s *Store) Issues() repository.IssueRepository { return issueRepository{s} }

// Sessions returns a SessionRepository view of the store.
func (s *Store) Sessions() repository.SessionRepository { return sessionRepository{s} }

// tick returns a timestamp strictly after every previously issued one so ordering by creation
// time stays deterministic. Callers hold the write lock.
func (s *Store) tick() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

type userRepository struct{ s *Store }

func (r userRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type projectRepository struct{ s *Store }

func (r projectRepository) Create(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project.ID = uuid.NewString()
	project.CreatedAt = r.s.tick()
	project.UpdatedAt = project.CreatedAt
	project.MemberIDs = append([]string(nil), project.MemberIDs...)
	r.s.projects[project.ID] = cloneProject(*project)
	return nil
}

func (r projectRepository) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	project, ok := r.s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := cloneProject(project)
	return &p, nil
}

func (r projectRepository) ListForUser(_ context.Context, userID string) ([]domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Project{}
	for _, project := range r.s.projects {
		if project.IsMember(userID) {
			result = append(result, cloneProject(project))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r projectRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return repository.ErrNotFound
	}
	for issueID, issue := range r.s.issues {
		if issue.ProjectID == id {
			delete(r.s.issues, issueID)
		}
	}
	delete(r.s.projects, id)
	return nil
}

func (r projectRepository) AddMember(_ context.Context, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project, ok := r.s.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range project.MemberIDs {
		if id == userID {
			return nil
		}
	}
	// Keys and stored ids come from the stored entity; caller strings may alias request buffers.
	project.MemberIDs = append(project.MemberIDs, strings.Clone(userID))
	project.UpdatedAt = r.s.tick()
	r.s.projects[project.ID] = project
	return nil
}

func cloneOptional(v *string) *string {
	if v == nil {
		return nil
	}
	c := strings.Clone(*v)
	return &c
}

func cloneProject(p domain.Project) domain.Project {
	p.MemberIDs = append([]string(nil), p.MemberIDs...)
	return p
}

type issueRepository struct{ s *Store }

func (r issueRepository) Create(_ context.Context, issue *domain.Issue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	issue.ID = uuid.NewString()
	issue.CreatedAt = r.s.tick()
	issue.UpdatedAt = issue.CreatedAt
	r.s.issues[issue.ID] = *issue
	return nil
}

func (r issueRepository) Update(_ context.Context, issue *domain.Issue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.issues[issue.ID]
	if !ok {
		return repository.ErrNotFound
	}
	issue.ID = existing.ID
	issue.ProjectID = existing.ProjectID
	issue.ReporterID = existing.ReporterID
	issue.CreatedAt = existing.CreatedAt
	issue.UpdatedAt = r.s.tick()
	stored := *issue
	stored.AssigneeID = cloneOptional(issue.AssigneeID)
	r.s.issues[existing.ID] = stored
	return nil
}

func (r issueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	issue, ok := r.s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &issue, nil
}

func (r issueRepository) ListByProject(_ context.Context, projectID string) ([]domain.Issue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Issue{}
	for _, issue := range r.s.issues {
		if issue.ProjectID == projectID {
			result = append(result, issue)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r issueRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.issues[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.issues, id)
	return nil
}

type sessionRepository struct{ s *Store }

func (r sessionRepository) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.revoked[strings.Clone(sessionID)] = r.s.now().Add(ttl)
	return nil
}

func (r sessionRepository) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	until, ok := r.s.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if r.s.now().After(until) {
		delete(r.s.revoked, sessionID)
		return false, nil
	}
	return true, nil
}
