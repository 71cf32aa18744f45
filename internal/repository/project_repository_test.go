package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/persistence"
	"github.com/spec-kit/sprintflow/internal/repository"
)

// openTestPool connects to TEST_POSTGRES_DSN and applies migrations. Tests skip without it.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := persistence.RunMigrations(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func createUser(t *testing.T, users repository.UserRepository, name string) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:         name,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Role:         domain.UserRoleMember,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestPostgresAddMember(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	projects := repository.NewProjectRepository(pool)

	owner := createUser(t, users, "Ann")
	member := createUser(t, users, "Bob")
	project := &domain.Project{Name: "Alpha", OwnerID: owner.ID, MemberIDs: []string{owner.ID}}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	t.Cleanup(func() { _ = projects.Delete(context.Background(), project.ID) })

	time.Sleep(10 * time.Millisecond)
	if err := projects.AddMember(ctx, project.ID, member.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := projects.AddMember(ctx, project.ID, member.ID); err != nil {
		t.Fatalf("repeat add member: %v", err)
	}

	got, err := projects.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsMember(member.ID) || len(got.MemberIDs) != 2 {
		t.Fatalf("unexpected members %v", got.MemberIDs)
	}
	if !got.UpdatedAt.After(project.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %s vs %s", got.UpdatedAt, project.UpdatedAt)
	}
}

func TestPostgresAddMemberToMissingProject(t *testing.T) {
	pool := openTestPool(t)
	users := repository.NewUserRepository(pool)
	projects := repository.NewProjectRepository(pool)
	member := createUser(t, users, "Bob")

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		err := projects.AddMember(context.Background(), id, member.ID)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("project %q: expected ErrNotFound, got %v", id, err)
		}
	}
}
