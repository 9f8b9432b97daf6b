package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/repository"
)

// Service applies moderation decisions and deletes.
type Service struct {
	messages   MessageRepository
	threads    ThreadSource
	cache      Invalidator
	activities ActivityRepository
	events     Publisher
	logger     *slog.Logger
}

// NewService creates a new moderation service. cache, activities and
// events may be nil.
func NewService(
	messages MessageRepository,
	threads ThreadSource,
	cache Invalidator,
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
		messages:   messages,
		threads:    threads,
		cache:      cache,
		activities: activities,
		events:     events,
		logger:     logger,
	}
}

// Decide approves or rejects a pending message. Decisions are one-shot:
// a message that is not pending yields ErrNotPending and is left unchanged.
func (s *Service) Decide(ctx context.Context, a actor.Actor, messageID string, decision message.Status) (*message.Message, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if decision != message.StatusApproved && decision != message.StatusRejected {
		return nil, ErrInvalidDecision
	}

	msg, err := s.get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	t, err := s.threads.Load(ctx, msg.ThreadID)
	if err != nil {
		return nil, err
	}
	if !thread.CanModerate(a, t) {
		return nil, ErrForbidden
	}
	if !msg.IsPending() {
		return nil, ErrNotPending
	}

	now := time.Now().UTC()
	if err := s.messages.Decide(ctx, msg.ID, decision, a.UserID, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrNotPending
		case errors.Is(err, repository.ErrNotFound):
			return nil, message.ErrMessageNotFound
		}
		return nil, fmt.Errorf("recording decision: %w", err)
	}
	msg.ApprovalStatus = &decision
	msg.DecidedBy = &a.UserID
	msg.DecidedAt = &now

	s.logger.InfoContext(ctx, "message moderated", "message_id", msg.ID, "thread_id", t.ID, "decision", decision, "moderator", a.UserID)

	activityType, kind := activity.TypeMessageApproved, notify.KindMessageApproved
	if decision == message.StatusRejected {
		activityType, kind = activity.TypeMessageRejected, notify.KindMessageRejected
	}
	s.afterWrite(ctx, a, t, msg.ID, activityType, kind)
	return msg, nil
}

// Delete removes a message from the log. Deleting a missing message is a
// no-op.
func (s *Service) Delete(ctx context.Context, a actor.Actor, messageID string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.Can(actor.ActionDeleteMessage) {
		return ErrForbidden
	}

	msg, err := s.get(ctx, messageID)
	if errors.Is(err, message.ErrMessageNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t, err := s.threads.Load(ctx, msg.ThreadID)
	if err != nil {
		return err
	}
	if !thread.CanModerate(a, t) {
		return ErrForbidden
	}

	if err := s.messages.Delete(ctx, msg.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deleting message: %w", err)
	}

	s.logger.InfoContext(ctx, "message deleted", "message_id", msg.ID, "thread_id", t.ID, "moderator", a.UserID)
	s.afterWrite(ctx, a, t, msg.ID, activity.TypeMessageDeleted, notify.KindMessageDeleted)
	return nil
}

// ListPending returns the moderation queue: pending messages in threads the
// actor moderates, optionally limited to one project, oldest first.
func (s *Service) ListPending(ctx context.Context, a actor.Actor, projectID string) ([]message.Message, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if !a.Can(actor.ActionModerate) {
		return nil, ErrForbidden
	}

	var (
		threads []thread.Thread
		err     error
	)
	if strings.TrimSpace(projectID) != "" {
		threads, err = s.threads.ListForProject(ctx, a, projectID)
	} else {
		threads, err = s.threads.ListForUser(ctx, a)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(threads))
	for i := range threads {
		if thread.CanModerate(a, &threads[i]) {
			ids = append(ids, threads[i].ID)
		}
	}
	if len(ids) == 0 {
		return []message.Message{}, nil
	}

	pending, err := s.messages.ListPending(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing pending messages: %w", err)
	}
	return pending, nil
}

func (s *Service) get(ctx context.Context, id string) (*message.Message, error) {
	if strings.TrimSpace(id) == "" {
		return nil, message.ErrMessageNotFound
	}
	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, message.ErrMessageNotFound
		}
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return msg, nil
}

func (s *Service) afterWrite(ctx context.Context, a actor.Actor, t *thread.Thread, messageID string, activityType activity.ActivityType, kind notify.Kind) {
	if s.cache != nil {
		s.cache.Invalidate(t.ID)
	}
	if s.activities != nil {
		if err := s.activities.Log(ctx, &activity.ActivityEntry{
			ProjectID:    t.ProjectID,
			ThreadID:     t.ID,
			MessageID:    &messageID,
			ActorID:      a.UserID,
			ActivityType: activityType,
			Summary:      fmt.Sprintf("%s %s", activityType, messageID),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to log moderation activity", "message_id", messageID, "error", err)
		}
	}
	if err := s.events.Publish(ctx, notify.Event{
		Kind:      kind,
		ThreadID:  t.ID,
		ProjectID: t.ProjectIDValue(),
		MessageID: messageID,
		ActorID:   a.UserID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish moderation", "message_id", messageID, "error", err)
	}
}
