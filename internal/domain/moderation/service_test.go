package moderation_test

import (
	"context"
	"testing"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/repository"
	"github.com/ganot/parley/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type invalidations struct {
	threads []string
}

func (i *invalidations) Invalidate(threadID string) {
	i.threads = append(i.threads, threadID)
}

type fixture struct {
	messages   *mocks.MessageRepository
	threads    *mocks.Threads
	activities *mocks.ActivityRepository
	events     *mocks.Publisher
	cache      *invalidations
	svc        *moderation.Service
}

func newFixture() *fixture {
	f := &fixture{
		messages:   &mocks.MessageRepository{},
		threads:    &mocks.Threads{},
		activities: &mocks.ActivityRepository{},
		events:     &mocks.Publisher{},
		cache:      &invalidations{},
	}
	f.svc = moderation.NewService(f.messages, f.threads, f.cache, f.activities, f.events, nil)
	return f
}

var (
	admin  = actor.New("ad", actor.RoleAdmin)
	client = actor.New("c1", actor.RoleClient)
)

func threeWay() *thread.Thread {
	pid := "p1"
	return &thread.Thread{
		ID:        "t1",
		ProjectID: &pid,
		Type:      thread.TypeClientAdminFreelancer,
		Participants: []thread.Participant{
			{UserID: "c1", Role: actor.RoleClient},
			{UserID: "f1", Role: actor.RoleFreelancer},
		},
	}
}

func pendingMessage() *message.Message {
	s := message.StatusPending
	return &message.Message{ID: "m1", ThreadID: "t1", SenderID: "f1", RequiresApproval: true, ApprovalStatus: &s}
}

func TestModerationService_DecideApproves(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.messages.On("Get", ctx, "m1").Return(pendingMessage(), nil)
	f.threads.On("Load", ctx, "t1").Return(threeWay(), nil)
	f.messages.On("Decide", ctx, "m1", message.StatusApproved, "ad", mock.Anything).Return(nil)
	f.activities.On("Log", ctx, mock.Anything).Return(nil)
	f.events.On("Publish", ctx, mock.MatchedBy(func(ev notify.Event) bool {
		return ev.Kind == notify.KindMessageApproved && ev.MessageID == "m1"
	})).Return(nil)

	got, err := f.svc.Decide(ctx, admin, "m1", message.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, message.StatusApproved, got.StatusValue())
	require.Equal(t, "ad", *got.DecidedBy)
	require.True(t, message.Visible(got, "c1", false))
	require.Equal(t, []string{"t1"}, f.cache.threads)
	f.events.AssertExpectations(t)
}

func TestModerationService_DecideIsOneShot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	approved := message.StatusApproved
	done := pendingMessage()
	done.ApprovalStatus = &approved

	f.messages.On("Get", ctx, "m1").Return(done, nil)
	f.threads.On("Load", ctx, "t1").Return(threeWay(), nil)

	_, err := f.svc.Decide(ctx, admin, "m1", message.StatusRejected)
	require.ErrorIs(t, err, moderation.ErrNotPending)
	require.Equal(t, apperr.KindState, apperr.KindOf(err))
	f.messages.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Empty(t, f.cache.threads)
}

func TestModerationService_DecideLostRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.messages.On("Get", ctx, "m1").Return(pendingMessage(), nil)
	f.threads.On("Load", ctx, "t1").Return(threeWay(), nil)
	f.messages.On("Decide", ctx, "m1", message.StatusRejected, "ad", mock.Anything).Return(repository.ErrConflict)

	_, err := f.svc.Decide(ctx, admin, "m1", message.StatusRejected)
	require.ErrorIs(t, err, moderation.ErrNotPending)
}

func TestModerationService_DecideNonApprovalMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.messages.On("Get", ctx, "m2").Return(&message.Message{ID: "m2", ThreadID: "t1", SenderID: "ad"}, nil)
	f.threads.On("Load", ctx, "t1").Return(threeWay(), nil)

	_, err := f.svc.Decide(ctx, admin, "m2", message.StatusApproved)
	require.ErrorIs(t, err, moderation.ErrNotPending)
}

func TestModerationService_DecideErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.messages.On("Get", ctx, "m1").Return(pendingMessage(), nil)
	f.messages.On("Get", ctx, "gone").Return((*message.Message)(nil), repository.ErrNotFound)
	f.threads.On("Load", ctx, "t1").Return(threeWay(), nil)

	_, err := f.svc.Decide(ctx, admin, "m1", message.StatusPending)
	require.ErrorIs(t, err, moderation.ErrInvalidDecision)

	_, err = f.svc.Decide(ctx, client, "m1", message.StatusApproved)
	require.ErrorIs(t, err, moderation.ErrForbidden)
	require.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = f.svc.Decide(ctx, admin, "gone", message.StatusApproved)
	require.ErrorIs(t, err, message.ErrMessageNotFound)
}

func TestModerationService_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.messages.On("Get", ctx, "m1").Return(pendingMessage(), nil).Once()
	f.messages.On("Get", ctx, "m1").Return((*message.Message)(nil), repository.ErrNotFound)
	f.threads.On("Load", ctx, "t1").Return(threeWay(), nil)
	f.messages.On("Delete", ctx, "m1").Return(nil).Once()
	f.activities.On("Log", ctx, mock.Anything).Return(nil)
	f.events.On("Publish", ctx, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, admin, "m1"))
	require.NoError(t, f.svc.Delete(ctx, admin, "m1"))
	f.messages.AssertNumberOfCalls(t, "Delete", 1)
	require.Equal(t, []string{"t1"}, f.cache.threads)
}

func TestModerationService_DeleteRequiresModerator(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	err := f.svc.Delete(ctx, client, "m1")
	require.ErrorIs(t, err, moderation.ErrForbidden)
	f.messages.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestModerationService_DeleteOutsideDirectThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	direct := &thread.Thread{ID: "d1", Type: thread.TypeDirect, Participants: []thread.Participant{
		{UserID: "c1", Role: actor.RoleClient},
		{UserID: "ad2", Role: actor.RoleAdmin},
	}}
	f.messages.On("Get", ctx, "m9").Return(&message.Message{ID: "m9", ThreadID: "d1", SenderID: "c1"}, nil)
	f.threads.On("Load", ctx, "d1").Return(direct, nil)

	err := f.svc.Delete(ctx, admin, "m9")
	require.ErrorIs(t, err, moderation.ErrForbidden)
}

func TestModerationService_ListPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	direct := thread.Thread{ID: "d1", Type: thread.TypeDirect, Participants: []thread.Participant{
		{UserID: "c1", Role: actor.RoleClient},
		{UserID: "ad2", Role: actor.RoleAdmin},
	}}
	f.threads.On("ListForUser", ctx, admin).Return([]thread.Thread{*threeWay(), direct}, nil)
	f.threads.On("ListForProject", ctx, admin, "p1").Return([]thread.Thread{*threeWay()}, nil)
	f.messages.On("ListPending", ctx, []string{"t1"}).Return([]message.Message{*pendingMessage()}, nil)

	got, err := f.svc.ListPending(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = f.svc.ListPending(ctx, admin, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = f.svc.ListPending(ctx, client, "")
	require.ErrorIs(t, err, moderation.ErrForbidden)
}

func supervisedDirect() *thread.Thread {
	return &thread.Thread{ID: "d1", Type: thread.TypeDirect, Participants: []thread.Participant{
		{UserID: "c1", Role: actor.RoleClient},
		{UserID: "f1", Role: actor.RoleFreelancer},
	}}
}

func TestModerationService_SupervisedDirectThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	s := message.StatusPending
	pending := message.Message{ID: "m5", ThreadID: "d1", SenderID: "f1", RequiresApproval: true, ApprovalStatus: &s}
	require.True(t, moderation.RequiresApproval(supervisedDirect(), actor.RoleFreelancer))

	f.threads.On("ListForUser", ctx, admin).Return([]thread.Thread{*supervisedDirect()}, nil)
	f.messages.On("ListPending", ctx, []string{"d1"}).Return([]message.Message{pending}, nil)
	f.messages.On("Get", ctx, "m5").Return(&pending, nil)
	f.threads.On("Load", ctx, "d1").Return(supervisedDirect(), nil)
	f.messages.On("Decide", ctx, "m5", message.StatusApproved, "ad", mock.Anything).Return(nil)
	f.activities.On("Log", ctx, mock.Anything).Return(nil)
	f.events.On("Publish", ctx, mock.MatchedBy(func(ev notify.Event) bool {
		return ev.Kind == notify.KindMessageApproved && ev.ThreadID == "d1" && ev.ProjectID == ""
	})).Return(nil)

	queue, err := f.svc.ListPending(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, "m5", queue[0].ID)

	got, err := f.svc.Decide(ctx, admin, "m5", message.StatusApproved)
	require.NoError(t, err)
	require.True(t, message.Visible(got, "c1", false))
	require.Equal(t, []string{"d1"}, f.cache.threads)

	_, err = f.svc.Decide(ctx, client, "m5", message.StatusApproved)
	require.ErrorIs(t, err, moderation.ErrForbidden)
	f.events.AssertExpectations(t)
}
