package activity_test

import (
	"context"
	"testing"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		ThreadID:     "t1",
		ActorID:      "u1",
		ActivityType: activity.TypeMessageSent,
		Summary:      "sent",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{ThreadID: "t1", Limit: 200}).Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.Log(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, actor.New("admin1", actor.RoleAdmin), activity.ListActivityOptions{ThreadID: "t1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestActivityService_ListRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}

	svc := activity.NewService(repo, nil)
	_, err := svc.GetRecentActivity(ctx, actor.New("c1", actor.RoleClient), activity.ListActivityOptions{})
	require.ErrorIs(t, err, activity.ErrForbidden)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestActivityService_LogRejectsEmpty(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	require.ErrorIs(t, svc.Log(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.Log(context.Background(), &activity.ActivityEntry{}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.Log(context.Background(), &activity.ActivityEntry{ThreadID: "t1"}), activity.ErrInvalidInput)
}

// The domain services write their audit trail through the service.
var (
	_ thread.ActivityRepository     = (*activity.Service)(nil)
	_ message.ActivityRepository    = (*activity.Service)(nil)
	_ moderation.ActivityRepository = (*activity.Service)(nil)
)
