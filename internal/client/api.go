// Package client keeps UI-side message state consistent with the server:
// optimistic sends, authoritative refetches after moderation, and the two
// messaging surfaces (inbox and project board) built on shared thread views.
package client

import (
	"context"

	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
)

// API is the server surface the reconciliation layer drives.
type API interface {
	ResolveThread(ctx context.Context, req ResolveRequest) (*thread.Thread, error)
	GetThread(ctx context.Context, threadID string) (*thread.Thread, error)
	ListProjectThreads(ctx context.Context, projectID string) ([]thread.Thread, error)
	SendMessage(ctx context.Context, threadID, content string) (*message.Message, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]message.Message, error)
	MarkRead(ctx context.Context, threadID string, seq int64) error
	DecideMessage(ctx context.Context, messageID string, decision message.Status) (*message.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	ListPending(ctx context.Context, projectID string) ([]message.Message, error)
	ListConversations(ctx context.Context) ([]conversation.Conversation, error)
	PollActivity(ctx context.Context, threadIDs []string) (map[string]int64, error)
	WhoAmI(ctx context.Context) (*user.User, error)
}

// ResolveRequest names a thread by project topology or direct participants.
type ResolveRequest struct {
	ProjectID      string
	Type           thread.Type
	ParticipantIDs []string
}
