package conversation_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id, sender string, seq int64, requiresApproval bool) message.Message {
	m := message.Message{
		ID:               id,
		ThreadID:         "t1",
		SenderID:         sender,
		Content:          "content of " + id,
		SentAt:           base.Add(time.Duration(seq) * time.Second),
		Seq:              seq,
		RequiresApproval: requiresApproval,
	}
	if requiresApproval {
		s := message.StatusPending
		m.ApprovalStatus = &s
	}
	return m
}

func TestCache_LoadsOnceThenAppliesAppends(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MessageRepository{}
	first := msg("m1", "c1", 1, false)
	repo.On("LatestByClass", ctx, "t1").Return(&message.Latest{Public: &first, Overall: &first}, nil).Once()

	cache := conversation.NewCache(repo)

	got, err := cache.Latest(ctx, "t1", "c1", false)
	require.NoError(t, err)
	require.Equal(t, "m1", got.ID)

	cache.OnAppend(msg("m2", "f1", 2, true))

	got, err = cache.Latest(ctx, "t1", "c1", false)
	require.NoError(t, err)
	require.Equal(t, "m1", got.ID, "pending message must not leak to other participants")

	got, err = cache.Latest(ctx, "t1", "f1", false)
	require.NoError(t, err)
	require.Equal(t, "m2", got.ID)

	got, err = cache.Latest(ctx, "t1", "ad", true)
	require.NoError(t, err)
	require.Equal(t, "m2", got.ID)

	cache.OnAppend(msg("m3", "c1", 3, false))
	got, err = cache.Latest(ctx, "t1", "f1", false)
	require.NoError(t, err)
	require.Equal(t, "m3", got.ID)

	repo.AssertNumberOfCalls(t, "LatestByClass", 1)
}

func TestCache_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MessageRepository{}

	first := msg("m1", "c1", 1, false)
	held := msg("m2", "f1", 2, true)
	repo.On("LatestByClass", ctx, "t1").Return(&message.Latest{
		Public:         &first,
		Overall:        &held,
		HiddenBySender: map[string]*message.Message{"f1": &held},
	}, nil).Once()

	approved := held
	s := message.StatusApproved
	approved.ApprovalStatus = &s
	repo.On("LatestByClass", ctx, "t1").Return(&message.Latest{Public: &approved, Overall: &approved}, nil).Once()

	cache := conversation.NewCache(repo)
	got, err := cache.Latest(ctx, "t1", "c1", false)
	require.NoError(t, err)
	require.Equal(t, "m1", got.ID)
	require.Equal(t, 1, cache.Len())

	cache.Invalidate("t1")
	require.Equal(t, 0, cache.Len())

	got, err = cache.Latest(ctx, "t1", "c1", false)
	require.NoError(t, err)
	require.Equal(t, "m2", got.ID)
}

func TestCache_AppendBeforeLoadIsIgnored(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MessageRepository{}
	m := msg("m1", "c1", 1, false)
	repo.On("LatestByClass", ctx, "t1").Return(&message.Latest{Public: &m, Overall: &m}, nil)

	cache := conversation.NewCache(repo)
	cache.OnAppend(m)
	require.Equal(t, 0, cache.Len())

	got, err := cache.Latest(ctx, "t1", "f1", false)
	require.NoError(t, err)
	require.Equal(t, "m1", got.ID)
}

func TestCache_EmptyThread(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MessageRepository{}
	repo.On("LatestByClass", ctx, "t1").Return(&message.Latest{}, nil)

	cache := conversation.NewCache(repo)
	got, err := cache.Latest(ctx, "t1", "c1", false)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSnippet(t *testing.T) {
	require.Equal(t, "short", conversation.Snippet("short"))

	long := ""
	for range conversation.SnippetRunes + 10 {
		long += "é"
	}
	s := conversation.Snippet(long)
	require.Equal(t, conversation.SnippetRunes+1, len([]rune(s)))
	require.Equal(t, '…', []rune(s)[conversation.SnippetRunes])
}
