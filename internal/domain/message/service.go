package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/repository"
)

// Service is the message store: an append-only, per-thread ordered log
// filtered by visibility on read.
type Service struct {
	messages         Repository
	threads          ThreadLoader
	requiresApproval ApprovalRule
	ids              IDGenerator
	observer         AppendObserver
	activities       ActivityRepository
	events           Publisher
	logger           *slog.Logger
}

// NewService creates a new message store. observer, activities and events
// may be nil.
func NewService(
	messages Repository,
	threads ThreadLoader,
	requiresApproval ApprovalRule,
	ids IDGenerator,
	observer AppendObserver,
	activities ActivityRepository,
	events Publisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if events == nil {
		events = notify.Discard
	}
	return &Service{
		messages:         messages,
		threads:          threads,
		requiresApproval: requiresApproval,
		ids:              ids,
		observer:         observer,
		activities:       activities,
		events:           events,
		logger:           logger,
	}
}

// Append stores a new message from the actor into the thread.
func (s *Service) Append(ctx context.Context, a actor.Actor, threadID, content string) (*Message, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return nil, ErrContentTooLong
	}

	t, err := s.accessibleThread(ctx, a, threadID)
	if err != nil {
		return nil, err
	}
	if !a.Can(actor.ActionSend) {
		return nil, ErrForbidden
	}

	msg := &Message{
		ID:               s.ids.NewID(),
		ThreadID:         t.ID,
		SenderID:         a.UserID,
		SenderRole:       a.Role,
		Content:          content,
		SentAt:           time.Now().UTC(),
		RequiresApproval: s.requiresApproval(t, a.Role),
	}
	if msg.RequiresApproval {
		pending := StatusPending
		msg.ApprovalStatus = &pending
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, thread.ErrThreadNotFound
		}
		return nil, fmt.Errorf("appending message: %w", err)
	}

	s.logger.InfoContext(ctx, "message appended",
		"message_id", msg.ID,
		"thread_id", msg.ThreadID,
		"seq", msg.Seq,
		"requires_approval", msg.RequiresApproval,
	)

	if s.observer != nil {
		s.observer.OnAppend(*msg)
	}
	if s.activities != nil {
		if err := s.activities.Log(ctx, &activity.ActivityEntry{
			ProjectID:    t.ProjectID,
			ThreadID:     t.ID,
			MessageID:    &msg.ID,
			ActorID:      a.UserID,
			ActivityType: activity.TypeMessageSent,
			Summary:      fmt.Sprintf("sent message %s", msg.ID),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to log message activity", "message_id", msg.ID, "error", err)
		}
	}
	if err := s.events.Publish(ctx, notify.Event{
		Kind:             notify.KindMessageCreated,
		ThreadID:         t.ID,
		ProjectID:        t.ProjectIDValue(),
		MessageID:        msg.ID,
		ActorID:          a.UserID,
		RequiresApproval: msg.RequiresApproval,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish message", "message_id", msg.ID, "error", err)
	}

	return msg, nil
}

// List returns the most recent limit messages of the thread visible to the
// actor, oldest first.
func (s *Service) List(ctx context.Context, a actor.Actor, threadID string, limit int) ([]Message, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	t, err := s.accessibleThread(ctx, a, threadID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.List(ctx, ListOptions{
		ThreadID:  t.ID,
		ViewerID:  a.UserID,
		Moderator: thread.CanModerate(a, t),
		Limit:     normalizeLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// MarkRead moves the actor's read marker in the thread forward to seq.
// A seq of zero marks everything currently in the thread as read.
func (s *Service) MarkRead(ctx context.Context, a actor.Actor, threadID string, seq int64) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if seq < 0 {
		return ErrInvalidSeq
	}
	t, err := s.accessibleThread(ctx, a, threadID)
	if err != nil {
		return err
	}
	if seq == 0 || seq > t.LastSeq {
		seq = t.LastSeq
	}
	if err := s.messages.MarkRead(ctx, t.ID, a.UserID, seq); err != nil {
		return fmt.Errorf("marking thread read: %w", err)
	}
	return nil
}

func (s *Service) accessibleThread(ctx context.Context, a actor.Actor, threadID string) (*thread.Thread, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrThreadRequired
	}
	t, err := s.threads.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.CanAccess(a, t) {
		return nil, ErrForbidden
	}
	return t, nil
}
