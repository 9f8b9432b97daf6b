package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/repository"
)

// ThreadRepository implements thread.Repository for SQLite. Uniqueness of
// project threads per (project, type) and of direct threads per participant
// set is enforced by unique indexes.
type ThreadRepository struct {
	db *DB
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

const threadColumns = `t.id, t.project_id, t.type, t.title, t.direct_key, t.last_seq, t.created_at, t.updated_at`

// Create inserts a thread with its participants
func (r *ThreadRepository) Create(ctx context.Context, th *thread.Thread) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (id, project_id, type, title, direct_key, last_seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`,
		th.ID,
		th.ProjectID,
		th.Type,
		th.Title,
		nullString(th.DirectKey),
		toNanos(th.CreatedAt),
		toNanos(th.UpdatedAt),
	)
	switch {
	case isUniqueViolation(err):
		return repository.ErrConflict
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	case err != nil:
		return fmt.Errorf("failed to create thread: %w", err)
	}

	for i, p := range th.Participants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO thread_participants (thread_id, user_id, role, position) VALUES (?, ?, ?, ?)`,
			th.ID, p.UserID, p.Role, i,
		)
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a thread by ID
func (r *ThreadRepository) Get(ctx context.Context, id string) (*thread.Thread, error) {
	return r.one(ctx, `SELECT `+threadColumns+` FROM threads t WHERE t.id = ?`, id)
}

// FindByProject retrieves the project thread of the given type
func (r *ThreadRepository) FindByProject(ctx context.Context, projectID string, typ thread.Type) (*thread.Thread, error) {
	return r.one(ctx, `SELECT `+threadColumns+` FROM threads t WHERE t.project_id = ? AND t.type = ?`, projectID, typ)
}

// FindDirect retrieves the direct thread with the given participant key
func (r *ThreadRepository) FindDirect(ctx context.Context, directKey string) (*thread.Thread, error) {
	return r.one(ctx, `SELECT `+threadColumns+` FROM threads t WHERE t.direct_key = ?`, directKey)
}

// ListByProject returns the project's threads
func (r *ThreadRepository) ListByProject(ctx context.Context, projectID string) ([]thread.Thread, error) {
	return r.list(ctx, `
		SELECT `+threadColumns+` FROM threads t
		WHERE t.project_id = ?
		ORDER BY CASE t.type
			WHEN 'project_client_admin_freelancer' THEN 0
			WHEN 'project_admin_client' THEN 1
			ELSE 2
		END
	`, projectID)
}

// ListForParticipant returns threads enumerating the user as participant
func (r *ThreadRepository) ListForParticipant(ctx context.Context, userID string) ([]thread.Thread, error) {
	return r.list(ctx, `
		SELECT `+threadColumns+` FROM threads t
		JOIN thread_participants p ON p.thread_id = t.id
		WHERE p.user_id = ?
		ORDER BY t.updated_at DESC, t.id
	`, userID)
}

// ListProjectThreads returns every project-scoped thread
func (r *ThreadRepository) ListProjectThreads(ctx context.Context) ([]thread.Thread, error) {
	return r.list(ctx, `
		SELECT `+threadColumns+` FROM threads t
		WHERE t.project_id IS NOT NULL
		ORDER BY t.updated_at DESC, t.id
	`)
}

// ListSupervised returns direct threads joining a client and a freelancer
// without an admin.
func (r *ThreadRepository) ListSupervised(ctx context.Context) ([]thread.Thread, error) {
	return r.list(ctx, `
		SELECT `+threadColumns+` FROM threads t
		WHERE t.type = 'direct'
		  AND EXISTS (SELECT 1 FROM thread_participants p WHERE p.thread_id = t.id AND p.role = 'client')
		  AND EXISTS (SELECT 1 FROM thread_participants p WHERE p.thread_id = t.id AND p.role = 'freelancer')
		  AND NOT EXISTS (SELECT 1 FROM thread_participants p WHERE p.thread_id = t.id AND p.role = 'admin')
		ORDER BY t.updated_at DESC, t.id
	`)
}

func (r *ThreadRepository) one(ctx context.Context, query string, args ...any) (*thread.Thread, error) {
	th, err := scanThread(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	threads := []thread.Thread{*th}
	if err := r.attachParticipants(ctx, threads); err != nil {
		return nil, err
	}
	return &threads[0], nil
}

func (r *ThreadRepository) list(ctx context.Context, query string, args ...any) ([]thread.Thread, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := []thread.Thread{}
	for rows.Next() {
		th, err := scanThread(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, *th)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error iterating thread rows: %w", err)
	}

	if err := r.attachParticipants(ctx, threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// attachParticipants loads participants for threads in one query. Rows
// must be closed before this runs since the pool has a single connection.
func (r *ThreadRepository) attachParticipants(ctx context.Context, threads []thread.Thread) error {
	if len(threads) == 0 {
		return nil
	}
	index := make(map[string]int, len(threads))
	ids := make([]string, len(threads))
	for i, th := range threads {
		index[th.ID] = i
		ids[i] = th.ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT thread_id, user_id, role FROM thread_participants
		WHERE thread_id IN (`+placeholders(len(ids))+`)
		ORDER BY thread_id, position
	`, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			threadID string
			p        thread.Participant
		)
		if err := rows.Scan(&threadID, &p.UserID, &p.Role); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		i := index[threadID]
		threads[i].Participants = append(threads[i].Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating participant rows: %w", err)
	}
	return nil
}

func scanThread(s scanner) (*thread.Thread, error) {
	var (
		th        thread.Thread
		projectID sql.NullString
		directKey sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := s.Scan(&th.ID, &projectID, &th.Type, &th.Title, &directKey, &th.LastSeq, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if projectID.Valid {
		th.ProjectID = &projectID.String
	}
	th.DirectKey = directKey.String
	th.CreatedAt = fromNanos(createdAt)
	th.UpdatedAt = fromNanos(updatedAt)
	th.Participants = []thread.Participant{}
	return &th, nil
}
