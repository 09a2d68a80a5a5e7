package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devroom/devroom/internal/domain/project"
	"github.com/devroom/devroom/internal/domain/user"
	"github.com/devroom/devroom/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project and its initial membership rows
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (id, name, file_tree, created_at)
		VALUES (?, ?, '{}', ?)
	`

	if _, err := tx.ExecContext(ctx, query, proj.ID, proj.Name, proj.CreatedAt); err != nil {
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	for _, userID := range proj.Members {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
			proj.ID, userID,
		)
		if err != nil {
			if mapped := mapError(err); mapped != err {
				return mapped
			}
			return fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get retrieves a project by ID, including its member identities
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, name, created_at
		FROM projects
		WHERE id = ?
	`

	var proj project.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Name,
		&proj.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	memberQuery := `
		SELECT user_id
		FROM project_members
		WHERE project_id = ?
		ORDER BY added_at ASC, user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, memberQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		proj.Members = append(proj.Members, userID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return &proj, nil
}

// ListForUser returns all projects the user is a member of
func (r *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]project.Project, error) {
	query := `
		SELECT p.id, p.name, p.created_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var proj project.Project
		if err := rows.Scan(&proj.ID, &proj.Name, &proj.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// GetMembers resolves a project's member identities to full user records
func (r *ProjectRepository) GetMembers(ctx context.Context, projectID string) ([]user.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.created_at
		FROM users u
		JOIN project_members m ON m.user_id = u.id
		WHERE m.project_id = ?
		ORDER BY m.added_at ASC, u.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

// AddMembers adds users to a project, ignoring ones already present
func (r *ProjectRepository) AddMembers(ctx context.Context, projectID string, userIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := projectExistsTx(ctx, tx, projectID); err != nil {
		return err
	}

	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)`,
			projectID, userID,
		)
		if err != nil {
			if mapped := mapError(err); mapped != err {
				return mapped
			}
			return fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a project
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func projectExistsTx(ctx context.Context, tx *sql.Tx, projectID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, projectID).Scan(&one)
	if err == sql.ErrNoRows {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	return nil
}
