package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sprintflow/internal/domain"
)

// ProjectRepository encapsulates project and membership persistence.
type ProjectRepository interface {
	// Create stores the project together with its member list.
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// ListForUser returns projects owned by or shared with userID, newest first.
	ListForUser(ctx context.Context, userID string) ([]domain.Project, error)
	// AddMember adds userID to the member list; adding an existing member is a no-op.
	AddMember(ctx context.Context, projectID, userID string) error
	// Delete removes the project, its memberships and its issues.
	Delete(ctx context.Context, id string) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectColumns = `
        p.id::text, p.name, p.description, p.owner_id::text,
        COALESCE(array_agg(m.user_id::text ORDER BY m.added_at) FILTER (WHERE m.user_id IS NOT NULL), '{}'),
        p.created_at, p.updated_at`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertProject = `
        INSERT INTO projects (name, description, owner_id)
        VALUES ($1, $2, $3)
        RETURNING id::text, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertProject,
		project.Name,
		project.Description,
		project.OwnerID,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return mapError(err)
	}

	const insertMember = `
        INSERT INTO project_members (project_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING`
	for _, memberID := range project.MemberIDs {
		if _, err := tx.Exec(ctx, insertMember, project.ID, memberID); err != nil {
			return mapError(err)
		}
	}

	return tx.Commit(ctx)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM projects p
        LEFT JOIN project_members m ON m.project_id = p.id
        WHERE p.id=$1
        GROUP BY p.id`, projectColumns)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	projects, err := scanProjects(rows)
	if err != nil {
		return nil, mapError(err)
	}
	if len(projects) == 0 {
		return nil, ErrNotFound
	}
	return &projects[0], nil
}

func (r *projectRepository) ListForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM projects p
        LEFT JOIN project_members m ON m.project_id = p.id
        WHERE p.owner_id=$1
           OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id=$1)
        GROUP BY p.id
        ORDER BY p.created_at DESC`, projectColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	projects, err := scanProjects(rows)
	if err != nil {
		return nil, mapError(err)
	}
	return projects, nil
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertMember = `
        INSERT INTO project_members (project_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, insertMember, projectID, userID); err != nil {
		return mapError(err)
	}
	cmd, err := tx.Exec(ctx, `UPDATE projects SET updated_at=NOW() WHERE id=$1`, projectID)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM issues WHERE project_id=$1`, id); err != nil {
		return mapError(err)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanProjects(rows pgx.Rows) ([]domain.Project, error) {
	var result []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.OwnerID,
			&project.MemberIDs,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, rows.Err()
}
