package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/parley/internal/domain/user"
	"github.com/ganot/parley/internal/repository"
)

// UserRepository implements user.Repository for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, display_name, role, created_at`

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`,
		u.ID, u.DisplayName, u.Role, toNanos(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetMany returns the users among ids that exist
func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	return r.query(ctx, query, stringArgs(ids)...)
}

// List returns every user
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

// AddToken stores a token hash for a user
func (r *UserRepository) AddToken(ctx context.Context, tokenHash, userID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_tokens (token_hash, user_id, description, created_at) VALUES (?, ?, ?, ?)`,
		tokenHash, userID, description, time.Now().UnixNano(),
	)
	switch {
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	case isUniqueViolation(err):
		return repository.ErrConflict
	case err != nil:
		return fmt.Errorf("failed to add token: %w", err)
	}
	return nil
}

// LookupToken returns the user owning the token hash and records its use
func (r *UserRepository) LookupToken(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`UPDATE api_tokens SET last_used = ? WHERE token_hash = ? RETURNING user_id`,
		time.Now().UnixNano(), tokenHash,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return userID, nil
}

func (r *UserRepository) query(ctx context.Context, query string, args ...any) ([]user.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func scanUser(s scanner) (*user.User, error) {
	var (
		u         user.User
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.DisplayName, &u.Role, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromNanos(createdAt)
	return &u, nil
}
