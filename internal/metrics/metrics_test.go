package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/parley/internal/metrics"
	"github.com/ganot/parley/internal/notify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHubCountsByKind(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	hub := m.InstrumentHub(notify.NewMemoryHub(nil))
	t.Cleanup(func() { hub.Close() })

	require.NoError(t, hub.Publish(ctx, notify.Event{Kind: notify.KindMessageCreated, ThreadID: "t1"}))
	require.NoError(t, hub.Publish(ctx, notify.Event{Kind: notify.KindMessageCreated, ThreadID: "t1"}))
	require.NoError(t, hub.Publish(ctx, notify.Event{Kind: notify.KindMessageApproved, ThreadID: "t1"}))

	versions, err := hub.Versions(ctx, []string{"t1"})
	require.NoError(t, err)
	require.Equal(t, int64(3), versions["t1"])

	expected := `
# HELP parley_events_total Thread activity events published, by kind.
# TYPE parley_events_total counter
parley_events_total{kind="message.approved"} 1
parley_events_total{kind="message.created"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "parley_events_total"))
}

func TestHandlerExposesRPCMetrics(t *testing.T) {
	m := metrics.New()
	m.ObserveRPC("send_message", "ok", 5*time.Millisecond)
	m.ObserveRPC("send_message", "validation", time.Millisecond)
	m.RateLimited()
	m.TrackGauge("conversation_cache_threads", "Threads held in the conversation cache.", func() float64 { return 4 })

	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, `parley_rpc_requests_total{method="send_message",outcome="ok"} 1`)
	require.Contains(t, text, `parley_rpc_requests_total{method="send_message",outcome="validation"} 1`)
	require.Contains(t, text, "parley_rate_limited_total 1")
	require.Contains(t, text, "parley_conversation_cache_threads 4")
	require.Contains(t, text, "go_goroutines")
}
