package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
)

// ThreadService defines thread registry operations needed by MCP.
type ThreadService interface {
	ResolveOrCreate(ctx context.Context, a actor.Actor, req thread.ResolveRequest) (*thread.Thread, error)
	Get(ctx context.Context, a actor.Actor, id string) (*thread.Thread, error)
	ListForUser(ctx context.Context, a actor.Actor) ([]thread.Thread, error)
	ListForProject(ctx context.Context, a actor.Actor, projectID string) ([]thread.Thread, error)
}

// MessageService defines message store operations needed by MCP.
type MessageService interface {
	Append(ctx context.Context, a actor.Actor, threadID, content string) (*message.Message, error)
	List(ctx context.Context, a actor.Actor, threadID string, limit int) ([]message.Message, error)
	MarkRead(ctx context.Context, a actor.Actor, threadID string, seq int64) error
}

// ModerationService defines moderation operations needed by MCP.
type ModerationService interface {
	Decide(ctx context.Context, a actor.Actor, messageID string, decision message.Status) (*message.Message, error)
	Delete(ctx context.Context, a actor.Actor, messageID string) error
	ListPending(ctx context.Context, a actor.Actor, projectID string) ([]message.Message, error)
}

// ConversationService builds conversation lists.
type ConversationService interface {
	ListFor(ctx context.Context, a actor.Actor) ([]conversation.Conversation, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, a actor.Actor, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// VersionSource answers activity polls.
type VersionSource interface {
	Versions(ctx context.Context, threadIDs []string) (map[string]int64, error)
}

// UserService looks up the calling user.
type UserService interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// Handler dispatches MCP commands.
type Handler struct {
	threads       ThreadService
	messages      MessageService
	moderation    ModerationService
	conversations ConversationService
	activity      ActivityService
	versions      VersionSource
	users         UserService
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{
		threads:       svc.Threads,
		messages:      svc.Messages,
		moderation:    svc.Moderation,
		conversations: svc.Conversations,
		activity:      svc.Activity,
		versions:      svc.Versions,
		users:         svc.Users,
	}
}

// Handle dispatches a method call made by a on behalf of either transport.
func (h *Handler) Handle(ctx context.Context, a actor.Actor, method string, params json.RawMessage) (any, error) {
	if err := a.Validate(); err != nil {
		return nil, mapError(ErrUnauthenticated)
	}

	switch method {
	case MethodResolveThread:
		var req ResolveThreadParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		t, err := h.threads.ResolveOrCreate(ctx, a, thread.ResolveRequest{
			ProjectID:       req.ProjectID,
			Type:            req.Type,
			ParticipantHint: req.ParticipantIDs,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return t, nil
	case MethodGetThread:
		var req GetThreadParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		t, err := h.threads.Get(ctx, a, req.ThreadID)
		if err != nil {
			return nil, mapError(err)
		}
		return t, nil
	case MethodListProjectThreads:
		var req ListProjectThreadsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		threads, err := h.threads.ListForProject(ctx, a, req.ProjectID)
		if err != nil {
			return nil, mapError(err)
		}
		return ThreadListResponse{Threads: nonNil(threads)}, nil
	case MethodSendMessage:
		var req SendMessageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		m, err := h.messages.Append(ctx, a, req.ThreadID, req.Content)
		if err != nil {
			return nil, mapError(err)
		}
		return m, nil
	case MethodListMessages:
		var req ListMessagesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		msgs, err := h.messages.List(ctx, a, req.ThreadID, req.Limit)
		if err != nil {
			return nil, mapError(err)
		}
		return MessageListResponse{Messages: nonNil(msgs)}, nil
	case MethodMarkRead:
		var req MarkReadParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.messages.MarkRead(ctx, a, req.ThreadID, req.Seq); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "ok"}, nil
	case MethodDecideMessage:
		var req DecideMessageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		m, err := h.moderation.Decide(ctx, a, req.MessageID, req.Decision)
		if err != nil {
			return nil, mapError(err)
		}
		return m, nil
	case MethodDeleteMessage:
		var req DeleteMessageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.moderation.Delete(ctx, a, req.MessageID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "deleted"}, nil
	case MethodListPending:
		var req ListPendingParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		msgs, err := h.moderation.ListPending(ctx, a, req.ProjectID)
		if err != nil {
			return nil, mapError(err)
		}
		return MessageListResponse{Messages: nonNil(msgs)}, nil
	case MethodListConversations:
		convs, err := h.conversations.ListFor(ctx, a)
		if err != nil {
			return nil, mapError(err)
		}
		return ConversationListResponse{Conversations: nonNil(convs)}, nil
	case MethodPollActivity:
		var req PollActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.pollActivity(ctx, a, req.ThreadIDs)
	case MethodWhoAmI:
		u, err := h.users.Get(ctx, a.UserID)
		if err != nil {
			return nil, mapError(err)
		}
		return WhoAmIResponse{User: *u}, nil
	case MethodListActivity:
		var req ListActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.activity.GetRecentActivity(ctx, a, activity.ListActivityOptions{
			ProjectID: req.ProjectID,
			ThreadID:  req.ThreadID,
			Limit:     req.Limit,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return ActivityListResponse{Entries: nonNil(entries)}, nil
	default:
		return nil, mapError(apperr.Validation(fmt.Sprintf("unknown method: %s", method)))
	}
}

// pollActivity reports versions only for threads the actor can see;
// requested ids outside that set are left out of the answer.
func (h *Handler) pollActivity(ctx context.Context, a actor.Actor, requested []string) (any, error) {
	visible, err := h.threads.ListForUser(ctx, a)
	if err != nil {
		return nil, mapError(err)
	}
	allowed := make(map[string]bool, len(visible))
	for _, t := range visible {
		allowed[t.ID] = true
	}

	ids := make([]string, 0, len(visible))
	if len(requested) == 0 {
		for _, t := range visible {
			ids = append(ids, t.ID)
		}
	} else {
		for _, id := range requested {
			if allowed[id] {
				ids = append(ids, id)
			}
		}
	}

	versions, err := h.versions.Versions(ctx, ids)
	if err != nil {
		return nil, mapError(apperr.Wrap(apperr.KindTransport, "polling activity", err))
	}
	if versions == nil {
		versions = map[string]int64{}
	}
	return PollActivityResponse{Versions: versions}, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(apperr.Wrap(apperr.KindValidation, "invalid params", err))
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
