package client

import (
	"context"
	"sync"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/thread"
)

// Surface is something whose conversation list can be refetched and whose
// open views can be looked up by thread.
type Surface interface {
	Refresh(ctx context.Context) error
	View(threadID string) (*ThreadView, bool)
}

// Inbox is the general messaging surface: the viewer's conversation list
// plus any thread views opened from it.
type Inbox struct {
	api    API
	viewer actor.Actor

	mu            sync.Mutex
	conversations []conversation.Conversation
	views         map[string]*ThreadView
	err           error
}

// NewInbox creates an empty inbox for viewer.
func NewInbox(api API, viewer actor.Actor) *Inbox {
	return &Inbox{api: api, viewer: viewer, views: make(map[string]*ThreadView)}
}

// Refresh refetches the conversation list.
func (in *Inbox) Refresh(ctx context.Context) error {
	convs, err := retryRead(ctx, func() ([]conversation.Conversation, error) {
		return in.api.ListConversations(ctx)
	})
	in.mu.Lock()
	defer in.mu.Unlock()
	in.err = err
	if err != nil {
		return err
	}
	in.conversations = convs
	return nil
}

// Conversations returns the last fetched list and the last refresh error.
func (in *Inbox) Conversations() ([]conversation.Conversation, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]conversation.Conversation(nil), in.conversations...), in.err
}

// View returns an already opened thread view.
func (in *Inbox) View(threadID string) (*ThreadView, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.views[threadID]
	return v, ok
}

// Open returns the view for threadID, creating and loading it on first use.
func (in *Inbox) Open(ctx context.Context, threadID string) (*ThreadView, error) {
	in.mu.Lock()
	v, ok := in.views[threadID]
	if !ok {
		v = NewThreadView(in.api, in.viewer, threadID)
		v.afterModeration = in.Refresh
		in.views[threadID] = v
	}
	in.mu.Unlock()

	if ok {
		return v, nil
	}
	return v, v.Refresh(ctx)
}

// StartDirect resolves the direct thread with participantIDs and opens it.
func (in *Inbox) StartDirect(ctx context.Context, participantIDs []string) (*ThreadView, error) {
	t, err := in.api.ResolveThread(ctx, ResolveRequest{Type: thread.TypeDirect, ParticipantIDs: participantIDs})
	if err != nil {
		return nil, err
	}
	v, err := in.Open(ctx, t.ID)
	if err != nil {
		return v, err
	}
	return v, in.Refresh(ctx)
}
