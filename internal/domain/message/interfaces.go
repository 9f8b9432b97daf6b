package message

import (
	"context"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/notify"
)

// Repository provides persistence for the message log.
//
// Append assigns SentAt (never earlier than the thread's previous message)
// and Seq, and bumps the owning thread, all in one transaction. It returns
// repository.ErrNotFound when the thread does not exist.
type Repository interface {
	Append(ctx context.Context, m *Message) error
	List(ctx context.Context, opts ListOptions) ([]Message, error)
	MarkRead(ctx context.Context, threadID, userID string, seq int64) error
}

// ThreadLoader loads threads without access checks.
type ThreadLoader interface {
	Load(ctx context.Context, id string) (*thread.Thread, error)
}

// ApprovalRule decides at creation time whether a message needs approval.
type ApprovalRule func(t *thread.Thread, senderRole actor.Role) bool

// IDGenerator mints message ids.
type IDGenerator interface {
	NewID() string
}

// AppendObserver is told about every stored message.
type AppendObserver interface {
	OnAppend(m Message)
}

// ActivityRepository logs message activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Publisher announces thread activity.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}
