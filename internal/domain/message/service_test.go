package message_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/ids"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	appended []message.Message
}

func (o *recordingObserver) OnAppend(m message.Message) {
	o.appended = append(o.appended, m)
}

type fixture struct {
	messages   *mocks.MessageRepository
	threads    *mocks.Threads
	activities *mocks.ActivityRepository
	events     *mocks.Publisher
	observer   *recordingObserver
	svc        *message.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen, err := ids.New(1)
	require.NoError(t, err)

	f := &fixture{
		messages:   &mocks.MessageRepository{},
		threads:    &mocks.Threads{},
		activities: &mocks.ActivityRepository{},
		events:     &mocks.Publisher{},
		observer:   &recordingObserver{},
	}
	f.svc = message.NewService(f.messages, f.threads, moderation.RequiresApproval, gen, f.observer, f.activities, f.events, nil)
	return f
}

func projectThread(typ thread.Type) *thread.Thread {
	pid := "p1"
	return &thread.Thread{
		ID:        "t1",
		ProjectID: &pid,
		Type:      typ,
		Participants: []thread.Participant{
			{UserID: "c1", Role: actor.RoleClient},
			{UserID: "f1", Role: actor.RoleFreelancer},
		},
		LastSeq: 7,
	}
}

func TestMessageService_AppendRequiresApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.threads.On("Load", ctx, "t1").Return(projectThread(thread.TypeClientAdminFreelancer), nil)
	f.messages.On("Append", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*message.Message).Seq = 8
	}).Return(nil)
	f.activities.On("Log", ctx, mock.Anything).Return(nil)
	f.events.On("Publish", ctx, mock.MatchedBy(func(ev notify.Event) bool {
		return ev.Kind == notify.KindMessageCreated && ev.RequiresApproval
	})).Return(nil)

	msg, err := f.svc.Append(ctx, actor.New("f1", actor.RoleFreelancer), "t1", "  Can we extend the deadline?  ")
	require.NoError(t, err)
	require.Equal(t, "Can we extend the deadline?", msg.Content)
	require.True(t, msg.RequiresApproval)
	require.Equal(t, message.StatusPending, msg.StatusValue())
	require.Equal(t, int64(8), msg.Seq)
	require.NotEmpty(t, msg.ID)
	require.Len(t, f.observer.appended, 1)
	f.events.AssertExpectations(t)
}

func TestMessageService_AppendAdminNeverNeedsApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.threads.On("Load", ctx, "t1").Return(projectThread(thread.TypeAdminClient), nil)
	f.messages.On("Append", ctx, mock.Anything).Return(nil)
	f.activities.On("Log", ctx, mock.Anything).Return(nil)
	f.events.On("Publish", ctx, mock.Anything).Return(nil)

	msg, err := f.svc.Append(ctx, actor.New("ad", actor.RoleAdmin), "t1", "Kickoff on Monday")
	require.NoError(t, err)
	require.False(t, msg.RequiresApproval)
	require.Nil(t, msg.ApprovalStatus)
	require.True(t, message.Visible(msg, "c1", false))
}

func TestMessageService_AppendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := actor.New("c1", actor.RoleClient)

	_, err := f.svc.Append(ctx, client, "t1", "   \n\t ")
	require.ErrorIs(t, err, message.ErrEmptyContent)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Append(ctx, client, "t1", strings.Repeat("x", message.MaxContentRunes+1))
	require.ErrorIs(t, err, message.ErrContentTooLong)

	_, err = f.svc.Append(ctx, client, "", "hello")
	require.ErrorIs(t, err, message.ErrThreadRequired)

	f.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestMessageService_AppendOutsider(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.threads.On("Load", ctx, "t1").Return(projectThread(thread.TypeAdminClient), nil)

	_, err := f.svc.Append(ctx, actor.New("c2", actor.RoleClient), "t1", "hello")
	require.ErrorIs(t, err, message.ErrForbidden)
	require.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestMessageService_AppendUnknownThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.threads.On("Load", ctx, "nope").Return((*thread.Thread)(nil), thread.ErrThreadNotFound)

	_, err := f.svc.Append(ctx, actor.New("c1", actor.RoleClient), "nope", "hello")
	require.ErrorIs(t, err, thread.ErrThreadNotFound)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMessageService_ListUsesViewerClass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.threads.On("Load", ctx, "t1").Return(projectThread(thread.TypeClientAdminFreelancer), nil)
	f.messages.On("List", ctx, message.ListOptions{ThreadID: "t1", ViewerID: "c1", Limit: message.DefaultListLimit}).
		Return([]message.Message{{ID: "m1"}}, nil)
	f.messages.On("List", ctx, message.ListOptions{ThreadID: "t1", ViewerID: "ad", Moderator: true, Limit: message.MaxListLimit}).
		Return([]message.Message{{ID: "m1"}, {ID: "m2"}}, nil)

	got, err := f.svc.List(ctx, actor.New("c1", actor.RoleClient), "t1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = f.svc.List(ctx, actor.New("ad", actor.RoleAdmin), "t1", 10_000)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestMessageService_MarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := actor.New("c1", actor.RoleClient)

	f.threads.On("Load", ctx, "t1").Return(projectThread(thread.TypeAdminClient), nil)
	f.messages.On("MarkRead", ctx, "t1", "c1", int64(7)).Return(nil).Twice()
	f.messages.On("MarkRead", ctx, "t1", "c1", int64(3)).Return(nil).Once()

	require.NoError(t, f.svc.MarkRead(ctx, client, "t1", 0))
	require.NoError(t, f.svc.MarkRead(ctx, client, "t1", 99))
	require.NoError(t, f.svc.MarkRead(ctx, client, "t1", 3))
	require.ErrorIs(t, f.svc.MarkRead(ctx, client, "t1", -1), message.ErrInvalidSeq)
	f.messages.AssertExpectations(t)
}

func TestVisible(t *testing.T) {
	pending := message.StatusPending
	approved := message.StatusApproved
	rejected := message.StatusRejected

	public := &message.Message{SenderID: "f1"}
	held := &message.Message{SenderID: "f1", RequiresApproval: true, ApprovalStatus: &pending}
	ok := &message.Message{SenderID: "f1", RequiresApproval: true, ApprovalStatus: &approved}
	no := &message.Message{SenderID: "f1", RequiresApproval: true, ApprovalStatus: &rejected}

	require.True(t, message.Visible(public, "c1", false))
	require.False(t, message.Visible(held, "c1", false))
	require.True(t, message.Visible(held, "f1", false))
	require.True(t, message.Visible(held, "ad", true))
	require.True(t, message.Visible(ok, "c1", false))
	require.False(t, message.Visible(no, "c1", false))
	require.True(t, message.Visible(no, "f1", false))
	require.False(t, message.Visible(nil, "c1", true))
}
