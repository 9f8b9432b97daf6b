package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `parley carries project conversations between clients, freelancers and admins.

Core concepts:
- Thread: a conversation container. Project threads come in three topologies (client+admin+freelancer, admin+client, admin+freelancer); direct threads join an explicit set of users.
- Message: an entry in a thread's log. Messages between clients and freelancers wait for admin approval before the other party can see them.
- Conversation: your per-thread summary (title, last visible message, unread count).

Workflow:
1) Orient: whoami, then list_conversations.
2) Open a thread: resolve_thread (project_id + type, or participant_ids for direct) or get_thread.
3) Read with list_messages, then mark_read.
4) Write with send_message. A pending message is visible to you and to admins only.
5) Admins: list_pending, then decide_message (approved|rejected) or delete_message.
6) Stay current: poll_activity returns per-thread versions; refetch threads whose version grew.

Docs:
- parley://docs/concepts
- parley://docs/moderation
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "parley://docs/concepts",
		Name:        "docs_concepts",
		Title:       "parley concepts",
		Description: "Thread topologies, visibility and ordering rules.",
		Content: `# parley concepts

## Thread topologies

| type | parties |
|---|---|
| ` + "`project_client_admin_freelancer`" + ` | project client, project freelancer, admins |
| ` + "`project_admin_client`" + ` | project client, admins |
| ` + "`project_admin_freelancer`" + ` | project freelancer, admins |
| ` + "`direct`" + ` | the listed users |

There is at most one thread per (project, type) and at most one direct
thread per participant set. Resolving twice returns the same thread.
Admins can open every project thread.

## Visibility

A message is visible to you when it needs no approval, when it was
approved, when you sent it, or when you are an admin. Rejected messages
stay visible to their sender only.

## Ordering

Messages are ordered by send time, then by per-thread sequence number.
` + "`list_messages`" + ` returns the most recent N in ascending order.
`,
	},
	{
		URI:         "parley://docs/moderation",
		Name:        "docs_moderation",
		Title:       "parley moderation",
		Description: "Which messages need approval and how admins decide them.",
		Content: `# Moderation

A message needs approval when an admin did not send it and the thread
joins a client with a freelancer: the client+admin+freelancer project
thread, or a direct thread that includes both roles without an admin.

- ` + "`list_pending`" + ` lists messages awaiting a decision, oldest first.
- ` + "`decide_message`" + ` moves a pending message to approved or rejected.
  Deciding twice fails with NOT_PENDING; refresh and move on.
- ` + "`delete_message`" + ` removes a message. Deleting a missing message succeeds.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
