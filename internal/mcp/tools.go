package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every handler method as an MCP tool. Input schemas
// are inferred from the params structs.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Threads
	addTool[ResolveThreadParams](server, h, MethodResolveThread,
		"Find or create the thread for a project topology or a set of direct participants")
	addTool[GetThreadParams](server, h, MethodGetThread,
		"Get a thread and its participants")
	addTool[ListProjectThreadsParams](server, h, MethodListProjectThreads,
		"List the project's threads the current user may access")

	// Messages
	addTool[SendMessageParams](server, h, MethodSendMessage,
		"Send a message to a thread; messages in client/freelancer threads wait for admin approval")
	addTool[ListMessagesParams](server, h, MethodListMessages,
		"List the most recent visible messages of a thread in chronological order")
	addTool[MarkReadParams](server, h, MethodMarkRead,
		"Advance the current user's read marker for a thread")

	// Moderation
	addTool[DecideMessageParams](server, h, MethodDecideMessage,
		"Approve or reject a pending message (admins only)")
	addTool[DeleteMessageParams](server, h, MethodDeleteMessage,
		"Delete a message (admins only); deleting a missing message succeeds")
	addTool[ListPendingParams](server, h, MethodListPending,
		"List messages awaiting approval, oldest first")

	// Overview
	addTool[NoParams](server, h, MethodListConversations,
		"List the current user's conversations, most recently active first")
	addTool[PollActivityParams](server, h, MethodPollActivity,
		"Get activity versions for visible threads; a higher version means something changed")
	addTool[NoParams](server, h, MethodWhoAmI,
		"Describe the current user")
	addTool[ListActivityParams](server, h, MethodListActivity,
		"List the audit log, newest first (admins only)")
}

func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			a, ok := ActorFromContext(ctx)
			if !ok {
				return nil, nil, mapError(ErrUnauthenticated)
			}
			params, err := json.Marshal(in)
			if err != nil {
				return nil, nil, err
			}
			out, err := h.Handle(ctx, a, name, params)
			if err != nil {
				return nil, nil, err
			}
			return nil, out, nil
		})
}
