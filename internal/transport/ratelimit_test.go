package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterPool_EvictsIdleKeys(t *testing.T) {
	p := newLimiterPool(RateLimitConfig{RPS: 1, Burst: 1})
	p.ttl = 10 * time.Millisecond
	p.cleanupPeriod = 5 * time.Millisecond
	go p.cleanupLoop(t.Context())

	require.True(t, p.Allow("user:c1"))
	require.False(t, p.Allow("user:c1"))
	require.Equal(t, 1, p.size())

	require.Eventually(t, func() bool { return p.size() == 0 }, time.Second, 5*time.Millisecond)
	require.True(t, p.Allow("user:c1"))
}

func TestLimiterPool_CleanupStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newLimiterPool(RateLimitConfig{})
	go p.cleanupLoop(ctx)

	cancel()
	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop still running after cancel")
	}
}
