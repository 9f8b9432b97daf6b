package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/thread"
)

// Service is the conversation aggregator.
type Service struct {
	threads ThreadLister
	cache   *Cache
	unread  UnreadCounter
	users   Directory
	logger  *slog.Logger
}

// NewService creates a new conversation aggregator.
func NewService(threads ThreadLister, cache *Cache, unread UnreadCounter, users Directory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{threads: threads, cache: cache, unread: unread, users: users, logger: logger}
}

// ListFor returns one conversation per thread the actor belongs to, most
// recently active first.
func (s *Service) ListFor(ctx context.Context, a actor.Actor) ([]Conversation, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	threads, err := s.threads.ListForUser(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	var ids []string
	for _, t := range threads {
		ids = append(ids, t.ParticipantIDs()...)
	}
	users, err := s.users.GetMany(ctx, thread.NormalizeParticipants(ids))
	if err != nil {
		return nil, fmt.Errorf("resolving participants: %w", err)
	}

	out := make([]Conversation, 0, len(threads))
	for i := range threads {
		t := &threads[i]
		moderator := thread.CanModerate(a, t)

		conv := Conversation{
			ThreadID:  t.ID,
			ProjectID: t.ProjectID,
			Type:      t.Type,
			Title:     t.Title,
			UpdatedAt: t.UpdatedAt,
		}

		var others []string
		for _, p := range t.Participants {
			d := ParticipantDetail{UserID: p.UserID, Role: p.Role, DisplayName: p.UserID}
			if u, ok := users[p.UserID]; ok {
				d.DisplayName = u.DisplayName
			}
			conv.Participants = append(conv.Participants, d)
			if p.UserID != a.UserID {
				others = append(others, d.DisplayName)
			}
		}
		if t.Type == thread.TypeDirect {
			conv.Title = strings.Join(others, ", ")
		}

		last, err := s.cache.Latest(ctx, t.ID, a.UserID, moderator)
		if err != nil {
			return nil, fmt.Errorf("loading latest message: %w", err)
		}
		if last != nil {
			sentAt := last.SentAt
			conv.LastMessageID = last.ID
			conv.LastMessageSnippet = Snippet(last.Content)
			conv.LastMessageAt = &sentAt
			conv.LastMessageSenderID = last.SenderID
		}

		conv.UnreadCount, err = s.unread.CountUnread(ctx, t.ID, a.UserID, moderator)
		if err != nil {
			return nil, fmt.Errorf("counting unread: %w", err)
		}
		out = append(out, conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ThreadID < out[j].ThreadID
	})
	return out, nil
}
