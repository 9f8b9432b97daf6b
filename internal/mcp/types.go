package mcp

import (
	"slices"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
)

// Method names shared by the MCP tools and the JSON-RPC endpoint.
const (
	MethodResolveThread      = "resolve_thread"
	MethodGetThread          = "get_thread"
	MethodListProjectThreads = "list_project_threads"
	MethodSendMessage        = "send_message"
	MethodListMessages       = "list_messages"
	MethodMarkRead           = "mark_read"
	MethodDecideMessage      = "decide_message"
	MethodDeleteMessage      = "delete_message"
	MethodListPending        = "list_pending"
	MethodListConversations  = "list_conversations"
	MethodPollActivity       = "poll_activity"
	MethodWhoAmI             = "whoami"
	MethodListActivity       = "list_activity"
)

// Methods lists every dispatchable method.
var Methods = []string{
	MethodResolveThread, MethodGetThread, MethodListProjectThreads,
	MethodSendMessage, MethodListMessages, MethodMarkRead,
	MethodDecideMessage, MethodDeleteMessage, MethodListPending,
	MethodListConversations, MethodPollActivity, MethodWhoAmI, MethodListActivity,
}

// IsMethod reports whether name is a dispatchable method.
func IsMethod(name string) bool {
	return slices.Contains(Methods, name)
}

type NoParams struct{}

type ResolveThreadParams struct {
	ProjectID      string      `json:"project_id,omitempty" jsonschema:"project id; omit for direct threads"`
	Type           thread.Type `json:"type" jsonschema:"direct, project_client_admin_freelancer, project_admin_client or project_admin_freelancer"`
	ParticipantIDs []string    `json:"participant_ids,omitempty" jsonschema:"other participants for direct threads, or a hint for missing project parties"`
}

type GetThreadParams struct {
	ThreadID string `json:"thread_id"`
}

type ListProjectThreadsParams struct {
	ProjectID string `json:"project_id"`
}

type SendMessageParams struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content" jsonschema:"message text, at most 4000 characters"`
}

type ListMessagesParams struct {
	ThreadID string `json:"thread_id"`
	Limit    int    `json:"limit,omitempty" jsonschema:"most recent messages to return (default 50, max 500)"`
}

type MarkReadParams struct {
	ThreadID string `json:"thread_id"`
	Seq      int64  `json:"seq,omitempty" jsonschema:"highest sequence read; omit to mark the whole thread read"`
}

type DecideMessageParams struct {
	MessageID string         `json:"message_id"`
	Decision  message.Status `json:"decision" jsonschema:"approved or rejected"`
}

type DeleteMessageParams struct {
	MessageID string `json:"message_id"`
}

type ListPendingParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"restrict the queue to one project"`
}

type PollActivityParams struct {
	ThreadIDs []string `json:"thread_ids,omitempty" jsonschema:"threads to poll; omit for every visible thread"`
}

type ListActivityParams struct {
	ProjectID string `json:"project_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ThreadListResponse struct {
	Threads []thread.Thread `json:"threads"`
}

type MessageListResponse struct {
	Messages []message.Message `json:"messages"`
}

type ConversationListResponse struct {
	Conversations []conversation.Conversation `json:"conversations"`
}

type PollActivityResponse struct {
	Versions map[string]int64 `json:"versions"`
}

type ActivityListResponse struct {
	Entries []activity.ActivityEntry `json:"entries"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type WhoAmIResponse struct {
	User user.User `json:"user"`
}
