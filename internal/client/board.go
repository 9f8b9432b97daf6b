package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/thread"
	"golang.org/x/sync/errgroup"
)

// Pane is one project thread shown on the board. A pane that failed to
// load carries its own error and does not affect the others.
type Pane struct {
	Type thread.Type
	View *ThreadView
	Err  error
}

// ProjectBoard is the project-scoped messaging surface: one pane per
// thread type the viewer may access.
type ProjectBoard struct {
	api       API
	viewer    actor.Actor
	projectID string

	mu            sync.Mutex
	panes         map[thread.Type]*Pane
	conversations []conversation.Conversation
}

// NewProjectBoard creates an unloaded board.
func NewProjectBoard(api API, viewer actor.Actor, projectID string) *ProjectBoard {
	return &ProjectBoard{
		api:       api,
		viewer:    viewer,
		projectID: projectID,
		panes:     make(map[thread.Type]*Pane),
	}
}

// AccessibleTypes returns the project thread types role may open.
func AccessibleTypes(role actor.Role) []thread.Type {
	var types []thread.Type
	for _, typ := range thread.ProjectTypes {
		if role == actor.RoleAdmin || slices.Contains(typ.PartyRoles(), role) {
			types = append(types, typ)
		}
	}
	return types
}

// Load resolves and loads every accessible pane concurrently, then the
// project's conversations. Failures are joined; successful panes stay
// usable.
func (b *ProjectBoard) Load(ctx context.Context) error {
	types := AccessibleTypes(b.viewer.Role)
	errs := make([]error, len(types))

	var g errgroup.Group
	for i, typ := range types {
		g.Go(func() error {
			pane := b.loadPane(ctx, typ)
			b.mu.Lock()
			b.panes[typ] = pane
			b.mu.Unlock()
			if pane.Err != nil {
				errs[i] = fmt.Errorf("%s: %w", typ, pane.Err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(append(errs, b.Refresh(ctx))...)
}

func (b *ProjectBoard) loadPane(ctx context.Context, typ thread.Type) *Pane {
	pane := &Pane{Type: typ}
	t, err := b.api.ResolveThread(ctx, ResolveRequest{ProjectID: b.projectID, Type: typ})
	if err != nil {
		pane.Err = err
		return pane
	}
	v := NewThreadView(b.api, b.viewer, t.ID)
	v.afterModeration = b.Refresh
	pane.View = v
	pane.Err = v.Refresh(ctx)
	return pane
}

// Refresh refetches the project's conversations.
func (b *ProjectBoard) Refresh(ctx context.Context) error {
	convs, err := retryRead(ctx, func() ([]conversation.Conversation, error) {
		return b.api.ListConversations(ctx)
	})
	if err != nil {
		return err
	}
	convs = slices.DeleteFunc(convs, func(c conversation.Conversation) bool {
		return c.ProjectID == nil || *c.ProjectID != b.projectID
	})
	b.mu.Lock()
	b.conversations = convs
	b.mu.Unlock()
	return nil
}

// Pane returns the pane for typ, if it was loaded.
func (b *ProjectBoard) Pane(typ thread.Type) (*Pane, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.panes[typ]
	return p, ok
}

// View returns the loaded view showing threadID.
func (b *ProjectBoard) View(threadID string) (*ThreadView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.panes {
		if p.View != nil && p.View.ThreadID() == threadID {
			return p.View, true
		}
	}
	return nil, false
}

// Conversations returns the project's conversations from the last refresh.
func (b *ProjectBoard) Conversations() []conversation.Conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]conversation.Conversation(nil), b.conversations...)
}
