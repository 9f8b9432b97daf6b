package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/parley/internal/domain/actor"
)

const maxListLimit = 200

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Log records an audit entry, stamping the current time if missing. The
// thread, message and moderation services write through it.
func (s *Service) Log(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.ThreadID == "" || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.DebugContext(ctx, "activity logged", "type", entry.ActivityType, "thread_id", entry.ThreadID, "actor", entry.ActorID)
	return nil
}

// GetRecentActivity lists audit entries, newest first. Admin only.
func (s *Service) GetRecentActivity(ctx context.Context, a actor.Actor, opts ListActivityOptions) ([]ActivityEntry, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if !a.Can(actor.ActionModerate) {
		return nil, ErrForbidden
	}
	if opts.Limit <= 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	return s.repo.List(ctx, opts)
}
