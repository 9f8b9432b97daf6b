package moderation

import (
	"context"
	"time"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/notify"
)

// MessageRepository provides the message operations moderation needs.
//
// Decide must only transition a pending message, returning
// repository.ErrConflict when the stored status is no longer pending.
type MessageRepository interface {
	Get(ctx context.Context, id string) (*message.Message, error)
	Decide(ctx context.Context, id string, status message.Status, decidedBy string, decidedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context, threadIDs []string) ([]message.Message, error)
}

// ThreadSource loads threads for authority checks.
type ThreadSource interface {
	Load(ctx context.Context, id string) (*thread.Thread, error)
	ListForUser(ctx context.Context, a actor.Actor) ([]thread.Thread, error)
	ListForProject(ctx context.Context, a actor.Actor, projectID string) ([]thread.Thread, error)
}

// Invalidator drops cached projections of a thread.
type Invalidator interface {
	Invalidate(threadID string)
}

// ActivityRepository logs moderation activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Publisher announces thread activity.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}
