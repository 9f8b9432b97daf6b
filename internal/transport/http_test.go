package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/metrics"
	"github.com/ganot/parley/internal/notify"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	actor  actor.Actor
	err    error
}

func (h *testHandler) Handle(_ context.Context, a actor.Actor, method string, params json.RawMessage) (any, error) {
	h.method = method
	h.actor = a
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"user": a.UserID}, nil
}

type staticThreads struct {
	ids []string
	typ thread.Type
}

func (s staticThreads) ListForUser(context.Context, actor.Actor) ([]thread.Thread, error) {
	out := make([]thread.Thread, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, thread.Thread{ID: id, Type: s.typ})
	}
	return out, nil
}

func testResolverFor(a actor.Actor) *testResolver {
	return &testResolver{tokens: map[string]actor.Actor{"token": a}}
}

func postRPC(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(Options{
		Handler:  handler,
		Resolver: testResolverFor(actor.New("c1", actor.RoleClient)),
	}))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"list_conversations","id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeResponse(t, resp)
	require.Nil(t, out.Error)
	require.Equal(t, "list_conversations", handler.method)
	require.Equal(t, "c1", handler.actor.UserID)
}

func TestHTTPServer_RPCUnauthorized(t *testing.T) {
	server := httptest.NewServer(NewServer(Options{
		Handler:  &testHandler{},
		Resolver: testResolverFor(actor.New("c1", actor.RoleClient)),
	}))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"whoami","id":1}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RPCUnknownMethod(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(Options{
		Handler:  handler,
		Resolver: testResolverFor(actor.New("c1", actor.RoleClient)),
	}))
	t.Cleanup(server.Close)

	out := decodeResponse(t, postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"drop_tables","id":2}`))
	require.NotNil(t, out.Error)
	require.Equal(t, ErrMethodNotFound, out.Error.Code)
	require.Empty(t, handler.method)
}

func TestHTTPServer_RPCErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
		code int
	}{
		{name: "state", err: moderation.ErrNotPending, kind: apperr.KindState, code: ErrStateCode},
		{name: "authorization", err: thread.ErrForbidden, kind: apperr.KindAuthorization, code: ErrAuthorizationCode},
		{name: "validation", err: thread.ErrInvalidType, kind: apperr.KindValidation, code: ErrInvalidParams},
		{name: "internal", err: io.ErrUnexpectedEOF, kind: apperr.KindInternal, code: ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(NewServer(Options{
				Handler:  &testHandler{err: tt.err},
				Resolver: testResolverFor(actor.New("ad", actor.RoleAdmin)),
			}))
			t.Cleanup(server.Close)

			resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"decide_message","params":{},"id":3}`)
			var out struct {
				Error struct {
					Code    int       `json:"code"`
					Message string    `json:"message"`
					Data    ErrorData `json:"data"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			require.Equal(t, tt.code, out.Error.Code)
			require.Equal(t, tt.kind, out.Error.Data.Kind)
			if tt.kind == apperr.KindInternal {
				require.Equal(t, "internal error", out.Error.Message)
			}
		})
	}
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(Options{Handler: &testHandler{}}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_MetricsAndRateLimit(t *testing.T) {
	m := metrics.New()
	server := httptest.NewServer(NewServer(Options{
		Context:   t.Context(),
		Handler:   &testHandler{},
		Resolver:  testResolverFor(actor.New("c1", actor.RoleClient)),
		Metrics:   m,
		RateLimit: &RateLimitConfig{RPS: 0.001, Burst: 1},
	}))
	t.Cleanup(server.Close)

	first := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"whoami","id":1}`)
	require.Equal(t, http.StatusOK, first.StatusCode)
	second := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"whoami","id":2}`)
	require.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `parley_rpc_requests_total{method="whoami",outcome="ok"} 1`)
	require.Contains(t, string(body), `parley_rate_limited_total 1`)
}

func TestHTTPServer_EventsFilteredByVisibility(t *testing.T) {
	hub := notify.NewMemoryHub(nil)
	t.Cleanup(func() { hub.Close() })
	server := httptest.NewServer(NewServer(Options{
		Handler:  &testHandler{},
		Resolver: testResolverFor(actor.New("c1", actor.RoleClient)),
		Events:   hub,
		Threads:  staticThreads{ids: []string{"t-mine"}},
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	require.Equal(t, "ready", nextEvent(t, reader))

	require.NoError(t, hub.Publish(ctx, notify.Event{Kind: notify.KindMessageCreated, ThreadID: "t-other"}))
	require.NoError(t, hub.Publish(ctx, notify.Event{Kind: notify.KindMessageCreated, ThreadID: "t-mine", MessageID: "m1"}))

	require.Equal(t, string(notify.KindMessageCreated), nextEvent(t, reader))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, `"thread_id":"t-mine"`)
}

func nextEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			return name
		}
	}
}

func openEvents(t *testing.T, ctx context.Context, url string) *bufio.Reader {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	reader := bufio.NewReader(resp.Body)
	require.Equal(t, "ready", nextEvent(t, reader))
	return reader
}

func nextPayload(t *testing.T, r *bufio.Reader) notify.Event {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
	require.True(t, ok, "unexpected line %q", line)
	var ev notify.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	return ev
}

func TestHTTPServer_EventsRedactHeldMessages(t *testing.T) {
	tests := []struct {
		name       string
		viewer     actor.Actor
		typ        thread.Type
		wantFields bool
	}{
		{"participant", actor.New("c1", actor.RoleClient), thread.TypeClientAdminFreelancer, false},
		{"moderator", actor.New("ad", actor.RoleAdmin), thread.TypeClientAdminFreelancer, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := notify.NewMemoryHub(nil)
			t.Cleanup(func() { hub.Close() })
			server := httptest.NewServer(NewServer(Options{
				Handler:  &testHandler{},
				Resolver: testResolverFor(tt.viewer),
				Events:   hub,
				Threads:  staticThreads{ids: []string{"t1"}, typ: tt.typ},
			}))
			t.Cleanup(server.Close)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			reader := openEvents(t, ctx, server.URL)

			require.NoError(t, hub.Publish(ctx, notify.Event{
				Kind: notify.KindMessageCreated, ThreadID: "t1", MessageID: "m1", ActorID: "f1", RequiresApproval: true,
			}))
			require.Equal(t, string(notify.KindMessageCreated), nextEvent(t, reader))
			held := nextPayload(t, reader)
			require.Equal(t, "t1", held.ThreadID)
			require.Positive(t, held.Version)
			if tt.wantFields {
				require.Equal(t, "m1", held.MessageID)
				require.True(t, held.RequiresApproval)
			} else {
				require.Empty(t, held.MessageID)
				require.Empty(t, held.ActorID)
				require.False(t, held.RequiresApproval)
			}

			require.NoError(t, hub.Publish(ctx, notify.Event{
				Kind: notify.KindMessageCreated, ThreadID: "t1", MessageID: "m2", ActorID: tt.viewer.UserID, RequiresApproval: true,
			}))
			require.Equal(t, string(notify.KindMessageCreated), nextEvent(t, reader))
			own := nextPayload(t, reader)
			require.Equal(t, "m2", own.MessageID)

			require.NoError(t, hub.Publish(ctx, notify.Event{
				Kind: notify.KindMessageApproved, ThreadID: "t1", MessageID: "m1", ActorID: "ad",
			}))
			require.Equal(t, string(notify.KindMessageApproved), nextEvent(t, reader))
			require.Equal(t, "m1", nextPayload(t, reader).MessageID)
		})
	}
}
