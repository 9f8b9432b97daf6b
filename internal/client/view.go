package client

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/google/uuid"
)

// ProvisionalPrefix marks ids of messages that exist only locally.
const ProvisionalPrefix = "local-"

// Entry is one row of a thread view.
type Entry struct {
	message.Message
	Provisional bool `json:"provisional"`
}

// ViewState is a consistent snapshot of a ThreadView.
type ViewState struct {
	ThreadID string
	Entries  []Entry
	Loading  bool
	Err      error
	Draft    string
	// Stale is set when a moderation action lost a race; the view has been
	// refetched and the caller should tell the user.
	Stale bool
}

// ThreadView holds one thread's authoritative message list plus the
// viewer's in-flight sends. Provisional messages sit after the last real
// message and are superseded, never merged, by the server's list.
type ThreadView struct {
	api      API
	viewer   actor.Actor
	threadID string
	limit    int
	// afterModeration refetches the owning surface's conversation list.
	afterModeration func(ctx context.Context) error

	mu          sync.Mutex
	messages    []message.Message
	provisional []message.Message
	loading     bool
	lastErr     error
	draft       string
	stale       bool
	gen         uint64
}

// NewThreadView creates an empty view; call Refresh to load it.
func NewThreadView(api API, viewer actor.Actor, threadID string) *ThreadView {
	return &ThreadView{api: api, viewer: viewer, threadID: threadID, limit: message.DefaultListLimit}
}

// ThreadID returns the viewed thread.
func (v *ThreadView) ThreadID() string {
	return v.threadID
}

// State returns a snapshot of the view.
func (v *ThreadView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	entries := make([]Entry, 0, len(v.messages)+len(v.provisional))
	for _, m := range v.messages {
		entries = append(entries, Entry{Message: m})
	}
	for _, m := range v.provisional {
		entries = append(entries, Entry{Message: m, Provisional: true})
	}
	return ViewState{
		ThreadID: v.threadID,
		Entries:  entries,
		Loading:  v.loading,
		Err:      v.lastErr,
		Draft:    v.draft,
		Stale:    v.stale,
	}
}

// SetDraft records unsent input.
func (v *ThreadView) SetDraft(text string) {
	v.mu.Lock()
	v.draft = text
	v.mu.Unlock()
}

// Refresh replaces the authoritative list with the server's. Transport
// failures are retried; a refresh that is overtaken by a newer one is
// discarded.
func (v *ThreadView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.loading = true
	v.mu.Unlock()

	msgs, err := retryRead(ctx, func() ([]message.Message, error) {
		return v.api.ListMessages(ctx, v.threadID, v.limit)
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return err
	}
	v.loading = false
	v.lastErr = err
	if err != nil {
		return err
	}
	v.messages = msgs
	v.provisional = slices.DeleteFunc(v.provisional, func(p message.Message) bool {
		return containsID(msgs, p.ID)
	})
	return nil
}

// Send shows text as a provisional message right away, then swaps in the
// server's message. On failure the provisional message is removed, the
// text is kept as the draft and the typed error is returned. Sends are
// never retried.
func (v *ThreadView) Send(ctx context.Context, text string) (*message.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, message.ErrEmptyContent
	}

	v.mu.Lock()
	sentAt := time.Now().UTC()
	if n := len(v.messages); n > 0 && v.messages[n-1].SentAt.After(sentAt) {
		sentAt = v.messages[n-1].SentAt
	}
	local := message.Message{
		ID:         ProvisionalPrefix + uuid.NewString(),
		ThreadID:   v.threadID,
		SenderID:   v.viewer.UserID,
		SenderRole: v.viewer.Role,
		Content:    text,
		SentAt:     sentAt,
	}
	v.provisional = append(v.provisional, local)
	v.draft = ""
	v.mu.Unlock()

	sent, err := v.api.SendMessage(ctx, v.threadID, text)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.provisional = slices.DeleteFunc(v.provisional, func(p message.Message) bool {
		return p.ID == local.ID
	})
	if err != nil {
		v.draft = text
		v.lastErr = err
		return nil, err
	}
	if !containsID(v.messages, sent.ID) {
		v.messages = append(v.messages, *sent)
	}
	v.lastErr = nil
	return sent, nil
}

// Moderate approves or rejects a message, then refetches the thread and
// the owning conversation list. A decision that lost a race marks the view
// stale and still refetches.
func (v *ThreadView) Moderate(ctx context.Context, messageID string, decision message.Status) error {
	_, err := v.api.DecideMessage(ctx, messageID, decision)
	return v.afterWrite(ctx, err)
}

// Delete removes a message, then refetches like Moderate.
func (v *ThreadView) Delete(ctx context.Context, messageID string) error {
	return v.afterWrite(ctx, v.api.DeleteMessage(ctx, messageID))
}

func (v *ThreadView) afterWrite(ctx context.Context, err error) error {
	v.mu.Lock()
	v.stale = apperr.Is(err, apperr.KindState)
	v.mu.Unlock()

	if err != nil && !apperr.Is(err, apperr.KindState) {
		v.mu.Lock()
		v.lastErr = err
		v.mu.Unlock()
		return err
	}
	if rerr := v.Refresh(ctx); rerr != nil && err == nil {
		err = rerr
	}
	if v.afterModeration != nil {
		if cerr := v.afterModeration(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// MarkRead advances the viewer's read marker to the newest loaded message.
func (v *ThreadView) MarkRead(ctx context.Context) error {
	v.mu.Lock()
	var seq int64
	if n := len(v.messages); n > 0 {
		seq = v.messages[n-1].Seq
	}
	v.mu.Unlock()
	return v.api.MarkRead(ctx, v.threadID, seq)
}

func containsID(msgs []message.Message, id string) bool {
	return slices.ContainsFunc(msgs, func(m message.Message) bool { return m.ID == id })
}
