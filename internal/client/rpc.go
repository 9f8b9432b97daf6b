package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
	"github.com/ganot/parley/internal/mcp"
	"github.com/ganot/parley/internal/transport"
)

// RemoteError is the server's description of a failed call. It is carried
// as the cause of an apperr.Error so callers can switch on the kind.
type RemoteError struct {
	RPCCode      int
	Code         string
	Message      string
	RecoveryHint string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RPCClient implements API over the JSON-RPC endpoint with a bearer token.
type RPCClient struct {
	endpoint string
	token    string
	http     *http.Client
	nextID   atomic.Int64
}

// NewRPCClient creates a client for the server at baseURL. A nil
// httpClient uses a client with a 15 second timeout.
func NewRPCClient(baseURL, token string, httpClient *http.Client) *RPCClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RPCClient{
		endpoint: strings.TrimRight(baseURL, "/") + "/rpc",
		token:    token,
		http:     httpClient,
	}
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int                  `json:"code"`
		Message string               `json:"message"`
		Data    *transport.ErrorData `json:"data"`
	} `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "encoding params", err)
	}
	body, err := json.Marshal(transport.Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raw,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindTransport, method, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperr.Wrap(apperr.KindAuthorization, method, &RemoteError{Code: "UNAUTHENTICATED", Message: readStatus(resp)})
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return apperr.Wrap(apperr.KindTransport, method, &RemoteError{Code: "UNAVAILABLE", Message: readStatus(resp)})
	case resp.StatusCode != http.StatusOK:
		return apperr.Wrap(apperr.KindInternal, method, &RemoteError{Message: readStatus(resp)})
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return apperr.Wrap(apperr.KindTransport, "decoding response", err)
	}
	if decoded.Error != nil {
		remote := &RemoteError{RPCCode: decoded.Error.Code, Message: decoded.Error.Message}
		kind := kindForCode(decoded.Error.Code)
		if d := decoded.Error.Data; d != nil {
			remote.Code, remote.RecoveryHint = d.Code, d.RecoveryHint
			if d.Kind != "" {
				kind = d.Kind
			}
		}
		return apperr.Wrap(kind, method, remote)
	}
	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return apperr.Wrap(apperr.KindInternal, "decoding result", err)
	}
	return nil
}

func kindForCode(code int) apperr.Kind {
	switch code {
	case transport.ErrInvalidParams, transport.ErrInvalidReq, transport.ErrMethodNotFound:
		return apperr.KindValidation
	case transport.ErrAuthorizationCode:
		return apperr.KindAuthorization
	case transport.ErrNotFoundCode:
		return apperr.KindNotFound
	case transport.ErrStateCode:
		return apperr.KindState
	case transport.ErrUnavailableCode:
		return apperr.KindTransport
	}
	return apperr.KindInternal
}

func readStatus(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return resp.Status
}

func (c *RPCClient) ResolveThread(ctx context.Context, req ResolveRequest) (*thread.Thread, error) {
	var out thread.Thread
	err := c.call(ctx, mcp.MethodResolveThread, mcp.ResolveThreadParams{
		ProjectID:      req.ProjectID,
		Type:           req.Type,
		ParticipantIDs: req.ParticipantIDs,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RPCClient) GetThread(ctx context.Context, threadID string) (*thread.Thread, error) {
	var out thread.Thread
	if err := c.call(ctx, mcp.MethodGetThread, mcp.GetThreadParams{ThreadID: threadID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RPCClient) ListProjectThreads(ctx context.Context, projectID string) ([]thread.Thread, error) {
	var out mcp.ThreadListResponse
	if err := c.call(ctx, mcp.MethodListProjectThreads, mcp.ListProjectThreadsParams{ProjectID: projectID}, &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (c *RPCClient) SendMessage(ctx context.Context, threadID, content string) (*message.Message, error) {
	var out message.Message
	if err := c.call(ctx, mcp.MethodSendMessage, mcp.SendMessageParams{ThreadID: threadID, Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RPCClient) ListMessages(ctx context.Context, threadID string, limit int) ([]message.Message, error) {
	var out mcp.MessageListResponse
	if err := c.call(ctx, mcp.MethodListMessages, mcp.ListMessagesParams{ThreadID: threadID, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *RPCClient) MarkRead(ctx context.Context, threadID string, seq int64) error {
	return c.call(ctx, mcp.MethodMarkRead, mcp.MarkReadParams{ThreadID: threadID, Seq: seq}, nil)
}

func (c *RPCClient) DecideMessage(ctx context.Context, messageID string, decision message.Status) (*message.Message, error) {
	var out message.Message
	if err := c.call(ctx, mcp.MethodDecideMessage, mcp.DecideMessageParams{MessageID: messageID, Decision: decision}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RPCClient) DeleteMessage(ctx context.Context, messageID string) error {
	return c.call(ctx, mcp.MethodDeleteMessage, mcp.DeleteMessageParams{MessageID: messageID}, nil)
}

func (c *RPCClient) ListPending(ctx context.Context, projectID string) ([]message.Message, error) {
	var out mcp.MessageListResponse
	if err := c.call(ctx, mcp.MethodListPending, mcp.ListPendingParams{ProjectID: projectID}, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *RPCClient) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	var out mcp.ConversationListResponse
	if err := c.call(ctx, mcp.MethodListConversations, mcp.NoParams{}, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *RPCClient) PollActivity(ctx context.Context, threadIDs []string) (map[string]int64, error) {
	var out mcp.PollActivityResponse
	if err := c.call(ctx, mcp.MethodPollActivity, mcp.PollActivityParams{ThreadIDs: threadIDs}, &out); err != nil {
		return nil, err
	}
	return out.Versions, nil
}

func (c *RPCClient) WhoAmI(ctx context.Context) (*user.User, error) {
	var out mcp.WhoAmIResponse
	if err := c.call(ctx, mcp.MethodWhoAmI, mcp.NoParams{}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
