package conversation

import (
	"context"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
)

// Loader reads the latest-message snapshot of a thread from storage.
type Loader interface {
	LatestByClass(ctx context.Context, threadID string) (*message.Latest, error)
}

// UnreadCounter counts messages the viewer has not read yet.
type UnreadCounter interface {
	CountUnread(ctx context.Context, threadID, viewerID string, moderator bool) (int, error)
}

// ThreadLister lists the threads a user belongs to.
type ThreadLister interface {
	ListForUser(ctx context.Context, a actor.Actor) ([]thread.Thread, error)
}

// Directory resolves participant display names.
type Directory interface {
	GetMany(ctx context.Context, ids []string) (map[string]user.User, error)
}
