package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, title, client_id, freelancer_id, created_at`

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Title,
		proj.ClientID,
		nullString(proj.FreelancerID),
		toNanos(proj.CreatedAt),
	)
	switch {
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	case isUniqueViolation(err):
		return repository.ErrConflict
	case err != nil:
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns all projects, newest first
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id`)
}

// ListForUser returns projects where the user is the client or freelancer
func (r *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]project.Project, error) {
	return r.query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE client_id = ? OR freelancer_id = ? ORDER BY created_at DESC, id`,
		userID, userID,
	)
}

// SetFreelancer assigns the project's freelancer
func (r *ProjectRepository) SetFreelancer(ctx context.Context, projectID, freelancerID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE projects SET freelancer_id = ? WHERE id = ?`, freelancerID, projectID)
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to set freelancer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) query(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

func scanProject(s scanner) (*project.Project, error) {
	var (
		proj         project.Project
		freelancerID sql.NullString
		createdAt    int64
	)
	if err := s.Scan(&proj.ID, &proj.Title, &proj.ClientID, &freelancerID, &createdAt); err != nil {
		return nil, err
	}
	proj.FreelancerID = freelancerID.String
	proj.CreatedAt = fromNanos(createdAt)
	return &proj, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
