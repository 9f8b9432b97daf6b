package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/repository"
)

// MessageRepository stores the per-thread message log, read markers and
// moderation state.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `m.id, m.thread_id, m.sender_id, m.sender_role, m.content, m.sent_at, m.seq,
	m.requires_approval, m.approval_status, m.decided_by, m.decided_at`

// publicFilter matches messages every participant may see.
const publicFilter = `(m.requires_approval = 0 OR m.approval_status = 'approved')`

// Append inserts the message, assigning its sequence number and a SentAt no
// earlier than the thread's previous message, and bumps the thread.
func (r *MessageRepository) Append(ctx context.Context, msg *message.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastSeq, lastSentAt int64
	err = tx.QueryRowContext(ctx, `SELECT last_seq, last_sent_at FROM threads WHERE id = ?`, msg.ThreadID).
		Scan(&lastSeq, &lastSentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read thread position: %w", err)
	}

	sentAt := toNanos(msg.SentAt)
	if sentAt < lastSentAt {
		sentAt = lastSentAt
	}
	seq := lastSeq + 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, sender_id, sender_role, content, sent_at, seq, requires_approval, approval_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		msg.ID,
		msg.ThreadID,
		msg.SenderID,
		msg.SenderRole,
		msg.Content,
		sentAt,
		seq,
		msg.RequiresApproval,
		msg.ApprovalStatus,
	)
	switch {
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	case isUniqueViolation(err):
		return repository.ErrConflict
	case err != nil:
		return fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE threads SET last_seq = ?, last_sent_at = ?, updated_at = ? WHERE id = ?`,
		seq, sentAt, sentAt, msg.ThreadID,
	)
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	msg.Seq = seq
	msg.SentAt = fromNanos(sentAt)
	return nil
}

// Get retrieves a message by ID
func (r *MessageRepository) Get(ctx context.Context, id string) (*message.Message, error) {
	msg, err := scanMessage(r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages m WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// List returns the newest opts.Limit messages visible to the viewer in
// ascending (sent_at, seq) order.
func (r *MessageRepository) List(ctx context.Context, opts message.ListOptions) ([]message.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages m
		WHERE m.thread_id = ?
		  AND (? OR m.sender_id = ? OR ` + publicFilter + `)
		ORDER BY m.sent_at DESC, m.seq DESC
	`
	args := []any{opts.ThreadID, opts.Moderator, opts.ViewerID}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	msgs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// Decide records a decision on a pending message. It returns
// repository.ErrConflict when the message is no longer pending.
func (r *MessageRepository) Decide(ctx context.Context, id string, status message.Status, decidedBy string, decidedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE messages SET approval_status = ?, decided_by = ?, decided_at = ?
		WHERE id = ? AND approval_status = 'pending'
	`, status, decidedBy, toNanos(decidedAt), id)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM messages WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check message: %w", err)
		}
		return repository.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a message from the log
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
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

// ListPending returns pending messages in the given threads, oldest first
func (r *MessageRepository) ListPending(ctx context.Context, threadIDs []string) ([]message.Message, error) {
	if len(threadIDs) == 0 {
		return []message.Message{}, nil
	}
	return r.query(ctx, `
		SELECT `+messageColumns+` FROM messages m
		WHERE m.approval_status = 'pending' AND m.thread_id IN (`+placeholders(len(threadIDs))+`)
		ORDER BY m.sent_at, m.seq
	`, stringArgs(threadIDs)...)
}

// LatestByClass returns the newest public message, the newest message of
// any status and each sender's newest hidden message.
func (r *MessageRepository) LatestByClass(ctx context.Context, threadID string) (*message.Latest, error) {
	latest := &message.Latest{HiddenBySender: map[string]*message.Message{}}

	var err error
	latest.Public, err = r.newest(ctx, `SELECT `+messageColumns+` FROM messages m
		WHERE m.thread_id = ? AND `+publicFilter+`
		ORDER BY m.sent_at DESC, m.seq DESC LIMIT 1`, threadID)
	if err != nil {
		return nil, err
	}
	latest.Overall, err = r.newest(ctx, `SELECT `+messageColumns+` FROM messages m
		WHERE m.thread_id = ?
		ORDER BY m.sent_at DESC, m.seq DESC LIMIT 1`, threadID)
	if err != nil {
		return nil, err
	}

	hidden, err := r.query(ctx, `
		SELECT `+messageColumns+` FROM messages m
		WHERE m.thread_id = ? AND NOT `+publicFilter+`
		  AND m.seq = (
			SELECT MAX(h.seq) FROM messages h
			WHERE h.thread_id = m.thread_id AND h.sender_id = m.sender_id
			  AND h.requires_approval = 1 AND h.approval_status != 'approved'
		  )
	`, threadID)
	if err != nil {
		return nil, err
	}
	for i := range hidden {
		latest.HiddenBySender[hidden[i].SenderID] = &hidden[i]
	}
	return latest, nil
}

// MarkRead moves the user's read marker forward; it never moves back.
func (r *MessageRepository) MarkRead(ctx context.Context, threadID, userID string, seq int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thread_reads (thread_id, user_id, last_read_seq, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (thread_id, user_id) DO UPDATE SET
			last_read_seq = MAX(last_read_seq, excluded.last_read_seq),
			updated_at = excluded.updated_at
	`, threadID, userID, seq, time.Now().UnixNano())
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}

// ReadMarker returns the user's read marker in the thread, 0 if none.
func (r *MessageRepository) ReadMarker(ctx context.Context, threadID, userID string) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx,
		`SELECT last_read_seq FROM thread_reads WHERE thread_id = ? AND user_id = ?`,
		threadID, userID,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get read marker: %w", err)
	}
	return seq, nil
}

// CountUnread counts messages visible to the viewer, sent by others, past
// the viewer's read marker.
func (r *MessageRepository) CountUnread(ctx context.Context, threadID, viewerID string, moderator bool) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages m
		WHERE m.thread_id = ?
		  AND m.sender_id != ?
		  AND m.seq > COALESCE(
			(SELECT last_read_seq FROM thread_reads WHERE thread_id = ? AND user_id = ?), 0)
		  AND (? OR `+publicFilter+`)
	`, threadID, viewerID, threadID, viewerID, moderator).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

func (r *MessageRepository) newest(ctx context.Context, query string, args ...any) (*message.Message, error) {
	msg, err := scanMessage(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	return msg, nil
}

func (r *MessageRepository) query(ctx context.Context, query string, args ...any) ([]message.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []message.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return msgs, nil
}

func scanMessage(s scanner) (*message.Message, error) {
	var (
		msg       message.Message
		sentAt    int64
		status    sql.NullString
		decidedBy sql.NullString
		decidedAt sql.NullInt64
	)
	if err := s.Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.SenderID,
		&msg.SenderRole,
		&msg.Content,
		&sentAt,
		&msg.Seq,
		&msg.RequiresApproval,
		&status,
		&decidedBy,
		&decidedAt,
	); err != nil {
		return nil, err
	}
	msg.SentAt = fromNanos(sentAt)
	if status.Valid {
		st := message.Status(status.String)
		msg.ApprovalStatus = &st
	}
	if decidedBy.Valid {
		msg.DecidedBy = &decidedBy.String
	}
	if decidedAt.Valid {
		t := fromNanos(decidedAt.Int64)
		msg.DecidedAt = &t
	}
	return &msg, nil
}
