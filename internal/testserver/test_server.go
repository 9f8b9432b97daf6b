package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/parley/internal/app"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/domain/user"
	"github.com/ganot/parley/internal/mcp"
	"github.com/ganot/parley/internal/metrics"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/sqlite"
	"github.com/ganot/parley/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Seeded identities. Project p1 joins Client and Freelancer; project p2
// has a client but no freelancer yet.
const (
	AdminID       = "admin"
	ClientID      = "client"
	FreelancerID  = "freelancer"
	OtherClientID = "client2"
	ProjectID     = "p1"
	OpenProjectID = "p2"
)

type TestServer struct {
	Server  *httptest.Server
	App     *app.App
	Metrics *metrics.Metrics
	tokens  map[string]string
}

// NewApp returns a seeded service graph over a private in-memory database.
func NewApp(t *testing.T, events notify.Hub) *app.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	a, err := app.New(app.Options{DB: db, Events: events, NodeID: 1})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = a.Events.Close()
		_ = db.Close()
	})

	seed(t, a)
	return a
}

func seed(t *testing.T, a *app.App) {
	t.Helper()
	ctx := context.Background()
	for _, req := range []user.CreateRequest{
		{ID: AdminID, DisplayName: "Ada Admin", Role: actor.RoleAdmin},
		{ID: ClientID, DisplayName: "Cleo Client", Role: actor.RoleClient},
		{ID: OtherClientID, DisplayName: "Cyd Client", Role: actor.RoleClient},
		{ID: FreelancerID, DisplayName: "Finn Freelancer", Role: actor.RoleFreelancer},
	} {
		_, err := a.Users.Create(ctx, req)
		require.NoError(t, err)
	}
	_, err := a.Projects.Create(ctx, project.CreateRequest{
		ID: ProjectID, Title: "Website", ClientID: ClientID, FreelancerID: FreelancerID,
	})
	require.NoError(t, err)
	_, err = a.Projects.Create(ctx, project.CreateRequest{
		ID: OpenProjectID, Title: "Logo", ClientID: ClientID,
	})
	require.NoError(t, err)
}

// New starts an HTTP server exposing /rpc, /events, /metrics and /mcp over
// a seeded app, and issues one bearer token per seeded user.
func New(t *testing.T) *TestServer {
	t.Helper()

	m := metrics.New()
	a := NewApp(t, m.InstrumentHub(notify.NewMemoryHub(nil)))

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      a.Users,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(transport.Options{
		Handler:  mcp.NewHandler(a.MCPServices()),
		Resolver: a.Users,
		Events:   a.Events,
		Threads:  a.Threads,
		Metrics:  m,
		MCP:      mcpHandler,
	}))
	t.Cleanup(server.Close)

	ts := &TestServer{Server: server, App: a, Metrics: m, tokens: map[string]string{}}
	for _, id := range []string{AdminID, ClientID, OtherClientID, FreelancerID} {
		token, err := a.Users.IssueToken(context.Background(), id, "test")
		require.NoError(t, err)
		ts.tokens[id] = token
	}
	return ts
}

// URL is the server's base URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// Token returns the bearer token issued for a seeded user.
func (ts *TestServer) Token(userID string) string {
	return ts.tokens[userID]
}
