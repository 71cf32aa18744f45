package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/spec-kit/sprintflow/internal/config"
	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/events"
	"github.com/spec-kit/sprintflow/internal/repository/memory"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

type fixture struct {
	store      *memory.Store
	dispatcher events.Dispatcher
	auth       *AuthService
	projects   *ProjectService
	issues     *IssueService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:   "test-secret",
		BcryptCost:  4,
		DefaultRole: "ADMIN",
	}}
	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		auth: NewAuthService(cfg, AuthDependencies{
			UserRepo:    store.Users(),
			SessionRepo: store.Sessions(),
		}),
		projects: NewProjectService(ProjectDependencies{
			ProjectRepo: store.Projects(),
			UserRepo:    store.Users(),
			Dispatcher:  dispatcher,
		}),
		issues: NewIssueService(IssueDependencies{
			IssueRepo:   store.Issues(),
			ProjectRepo: store.Projects(),
			UserRepo:    store.Users(),
			Dispatcher:  dispatcher,
		}),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *domain.User {
	t.Helper()
	result, err := f.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "secret123"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return result.User
}

func (f *fixture) project(t *testing.T, owner *domain.User, name string) *domain.Project {
	t.Helper()
	project, err := f.projects.CreateProject(context.Background(), owner.ID, ProjectCreateInput{Name: name})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func (f *fixture) issue(t *testing.T, reporter *domain.User, projectID, title string) *domain.Issue {
	t.Helper()
	issue, err := f.issues.CreateIssue(context.Background(), reporter.ID, IssueCreateInput{ProjectID: projectID, Title: title})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestRegisterAssignsDefaultRoleAndSession(t *testing.T) {
	f := newFixture(t)
	result, err := f.auth.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Role != domain.UserRoleAdmin {
		t.Fatalf("expected ADMIN role, got %s", result.User.Role)
	}
	if result.User.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}
	user, _, err := f.auth.CurrentUser(context.Background(), result.Token)
	if err != nil || user == nil || user.ID != result.User.ID {
		t.Fatalf("expected token to resolve to new user, got %v %v", user, err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ann", "ann@example.com")

	_, err := f.auth.Register(context.Background(), RegisterInput{Name: "Other", Email: "ANN@example.com", Password: "secret123"})
	expectCode(t, err, apperrors.CodeConflict)
}

func TestConcurrentRegistrationWithSameEmail(t *testing.T) {
	f := newFixture(t)
	emails := []string{"ann@example.com", "ANN@example.com", "Ann@Example.com", "ann@EXAMPLE.COM",
		"aNN@example.com", "ann@example.COM", "ANN@EXAMPLE.COM", "Ann@example.com"}

	var wg sync.WaitGroup
	errs := make([]error, len(emails))
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			_, errs[i] = f.auth.Register(context.Background(), RegisterInput{Name: "Ann", Email: email, Password: "secret123"})
		}(i, email)
	}
	wg.Wait()

	var created, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case apperrors.IsCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 || conflicts != len(emails)-1 {
		t.Fatalf("expected one success and %d conflicts, got %d and %d", len(emails)-1, created, conflicts)
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ann", "ann@example.com")

	_, wrongPassword := f.auth.Login(context.Background(), "ann@example.com", "nope-nope")
	_, unknownEmail := f.auth.Login(context.Background(), "ghost@example.com", "secret123")
	expectCode(t, wrongPassword, apperrors.CodeUnauthorized)
	expectCode(t, unknownEmail, apperrors.CodeUnauthorized)
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}

	result, err := f.auth.Login(context.Background(), "ann@example.com", "secret123")
	if err != nil || result.Token == "" {
		t.Fatalf("expected successful login, got %v", err)
	}
}

func TestCurrentUserTreatsBadTokensAsAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		user, _, err := f.auth.CurrentUser(ctx, token)
		if err != nil || user != nil {
			t.Fatalf("token %q: expected no session, got %v %v", token, user, err)
		}
	}

	result, err := f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.auth.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	user, _, err := f.auth.CurrentUser(ctx, result.Token)
	if err != nil || user != nil {
		t.Fatalf("expected revoked token to resolve to nobody, got %v %v", user, err)
	}
	if err := f.auth.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("logout with invalid token must succeed: %v", err)
	}
}

func TestProjectListingIsScopedToMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	first := f.project(t, ann, "Alpha")
	second := f.project(t, ann, "Beta")
	f.project(t, bob, "Gamma")

	projects, err := f.projects.ListProjects(ctx, ann.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != second.ID || projects[1].ID != first.ID {
		t.Fatalf("expected Ann's projects newest first, got %+v", projects)
	}
	if !first.IsMember(ann.ID) || len(first.MemberIDs) != 1 {
		t.Fatalf("expected owner to be the sole member, got %v", first.MemberIDs)
	}
}

func TestProjectAccessControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")
	project := f.project(t, ann, "Alpha")

	_, err := f.projects.GetProject(ctx, bob.ID, project.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = f.projects.GetProject(ctx, bob.ID, "missing")
	expectCode(t, err, apperrors.CodeNotFound)

	_, err = f.projects.AddMember(ctx, bob.ID, project.ID, "bob@example.com")
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = f.projects.AddMember(ctx, ann.ID, project.ID, "ghost@example.com")
	expectCode(t, err, apperrors.CodeNotFound)

	updated, err := f.projects.AddMember(ctx, ann.ID, project.ID, "bob@example.com")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if !updated.IsMember(bob.ID) {
		t.Fatalf("expected bob to be a member, got %v", updated.MemberIDs)
	}
	if _, err := f.projects.GetProject(ctx, bob.ID, project.ID); err != nil {
		t.Fatalf("member get: %v", err)
	}

	expectCode(t, f.projects.DeleteProject(ctx, bob.ID, project.ID), apperrors.CodeForbidden)
	expectCode(t, f.projects.DeleteProject(ctx, ann.ID, "missing"), apperrors.CodeNotFound)
}

func TestAddMemberWithReusedRequestBuffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")
	project := f.project(t, ann, "Alpha")
	issue := f.issue(t, ann, project.ID, "Bug1")

	// Route params alias a buffer the server reuses for the next request.
	buf := []byte(project.ID)
	param := unsafe.String(&buf[0], len(buf))
	if _, err := f.projects.AddMember(ctx, ann.ID, param, "bob@example.com"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	copy(buf, strings.Repeat("0", len(buf)))

	if _, err := f.projects.GetProject(ctx, bob.ID, project.ID); err != nil {
		t.Fatalf("member get after buffer reuse: %v", err)
	}
	status := domain.IssueStatusInProgress
	if _, err := f.issues.UpdateIssue(ctx, bob.ID, issue.ID, IssueUpdateInput{Status: &status}); err != nil {
		t.Fatalf("member update after buffer reuse: %v", err)
	}
}

func TestDeleteProjectCascadesIssues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	project := f.project(t, ann, "Alpha")
	issue := f.issue(t, ann, project.ID, "Bug1")

	if err := f.projects.DeleteProject(ctx, ann.ID, project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := f.issues.GetIssue(ctx, ann.ID, issue.ID)
	expectCode(t, err, apperrors.CodeNotFound)
	_, err = f.projects.GetProject(ctx, ann.ID, project.ID)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestCreateIssueDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	project := f.project(t, ann, "Alpha")

	created := f.issue(t, ann, project.ID, "Bug1")
	issue, err := f.issues.GetIssue(ctx, ann.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if issue.Status != domain.IssueStatusBacklog || issue.Priority != domain.IssuePriorityMedium {
		t.Fatalf("expected BACKLOG/MEDIUM, got %s/%s", issue.Status, issue.Priority)
	}
	if issue.ReporterID != ann.ID || issue.AssigneeID != nil || issue.DueDate != nil {
		t.Fatalf("unexpected issue %+v", issue)
	}
}

func TestIssueAccessControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")
	project := f.project(t, ann, "Alpha")
	issue := f.issue(t, ann, project.ID, "Bug1")

	_, err := f.issues.CreateIssue(ctx, bob.ID, IssueCreateInput{ProjectID: project.ID, Title: "Nope"})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = f.issues.CreateIssue(ctx, bob.ID, IssueCreateInput{ProjectID: "missing", Title: "Nope"})
	expectCode(t, err, apperrors.CodeNotFound)
	_, err = f.issues.ListIssues(ctx, bob.ID, project.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = f.issues.ListIssues(ctx, ann.ID, "")
	expectCode(t, err, apperrors.CodeValidationFailed)
	_, err = f.issues.GetIssue(ctx, bob.ID, issue.ID)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = f.issues.GetIssue(ctx, bob.ID, "missing")
	expectCode(t, err, apperrors.CodeNotFound)
	title := "Changed"
	_, err = f.issues.UpdateIssue(ctx, bob.ID, issue.ID, IssueUpdateInput{Title: &title})
	expectCode(t, err, apperrors.CodeForbidden)
	expectCode(t, f.issues.DeleteIssue(ctx, bob.ID, issue.ID), apperrors.CodeForbidden)

	if _, err := f.projects.AddMember(ctx, ann.ID, project.ID, "bob@example.com"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := f.issues.UpdateIssue(ctx, bob.ID, issue.ID, IssueUpdateInput{Title: &title}); err != nil {
		t.Fatalf("member update: %v", err)
	}
	expectCode(t, f.issues.DeleteIssue(ctx, bob.ID, issue.ID), apperrors.CodeForbidden)

	if err := f.issues.DeleteIssue(ctx, ann.ID, issue.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	expectCode(t, f.issues.DeleteIssue(ctx, ann.ID, issue.ID), apperrors.CodeNotFound)
}

func TestUpdateIssueIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")
	project := f.project(t, ann, "Alpha")

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created, err := f.issues.CreateIssue(ctx, ann.ID, IssueCreateInput{
		ProjectID:   project.ID,
		Title:       "Bug1",
		Description: "broken",
		Priority:    domain.IssuePriorityHigh,
		AssigneeID:  &bob.ID,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := domain.IssueStatusInProgress
	updated, err := f.issues.UpdateIssue(ctx, ann.ID, created.ID, IssueUpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != status || updated.Title != "Bug1" || updated.Description != "broken" ||
		updated.Priority != domain.IssuePriorityHigh || updated.AssigneeID == nil || *updated.AssigneeID != bob.ID ||
		updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Fatalf("unexpected partial update result %+v", updated)
	}

	cleared, err := f.issues.UpdateIssue(ctx, ann.ID, created.ID, IssueUpdateInput{AssigneeSet: true, DueDateSet: true})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.AssigneeID != nil || cleared.DueDate != nil || cleared.Status != status {
		t.Fatalf("expected assignee and due date cleared, got %+v", cleared)
	}
}

func TestIssueAssigneeMustExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	project := f.project(t, ann, "Alpha")

	ghost := "no-such-user"
	_, err := f.issues.CreateIssue(ctx, ann.ID, IssueCreateInput{ProjectID: project.ID, Title: "Bug1", AssigneeID: &ghost})
	expectCode(t, err, apperrors.CodeValidationFailed)

	issue := f.issue(t, ann, project.ID, "Bug2")
	_, err = f.issues.UpdateIssue(ctx, ann.ID, issue.ID, IssueUpdateInput{AssigneeSet: true, AssigneeID: &ghost})
	expectCode(t, err, apperrors.CodeValidationFailed)
}

func TestListIssuesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	project := f.project(t, ann, "Alpha")
	first := f.issue(t, ann, project.ID, "First")
	second := f.issue(t, ann, project.ID, "Second")

	issues, err := f.issues.ListIssues(ctx, ann.ID, project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(issues) != 2 || issues[0].ID != second.ID || issues[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", issues)
	}
}

func TestAssignmentPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")
	project := f.project(t, ann, "Alpha")
	issue := f.issue(t, ann, project.ID, "Bug1")

	var assigned []events.IssueAssignedPayload
	f.dispatcher.Subscribe(events.EventIssueAssigned, func(_ context.Context, event events.Event) error {
		assigned = append(assigned, event.Payload.(events.IssueAssignedPayload))
		return nil
	})

	input := IssueUpdateInput{AssigneeSet: true, AssigneeID: &bob.ID}
	if _, err := f.issues.UpdateIssue(ctx, ann.ID, issue.ID, input); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.issues.UpdateIssue(ctx, ann.ID, issue.ID, input); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if len(assigned) != 1 || assigned[0].AssigneeID != bob.ID || assigned[0].Title != "Bug1" {
		t.Fatalf("expected a single assignment event, got %+v", assigned)
	}
}
