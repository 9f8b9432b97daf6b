package mocks

import (
	"context"
	"time"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
	"github.com/ganot/parley/internal/notify"
	"github.com/stretchr/testify/mock"
)

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetMany(ctx context.Context, ids []string) ([]user.User, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) AddToken(ctx context.Context, tokenHash, userID, description string) error {
	args := m.Called(ctx, tokenHash, userID, description)
	return args.Error(0)
}

func (m *UserRepository) LookupToken(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]project.Project, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) SetFreelancer(ctx context.Context, projectID, freelancerID string) error {
	args := m.Called(ctx, projectID, freelancerID)
	return args.Error(0)
}

// ThreadRepository is a mock for thread.Repository.
type ThreadRepository struct {
	mock.Mock
}

func (m *ThreadRepository) Create(ctx context.Context, t *thread.Thread) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *ThreadRepository) Get(ctx context.Context, id string) (*thread.Thread, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*thread.Thread); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) FindByProject(ctx context.Context, projectID string, typ thread.Type) (*thread.Thread, error) {
	args := m.Called(ctx, projectID, typ)
	if t, ok := args.Get(0).(*thread.Thread); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) FindDirect(ctx context.Context, directKey string) (*thread.Thread, error) {
	args := m.Called(ctx, directKey)
	if t, ok := args.Get(0).(*thread.Thread); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) ListByProject(ctx context.Context, projectID string) ([]thread.Thread, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]thread.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) ListForParticipant(ctx context.Context, userID string) ([]thread.Thread, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]thread.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) ListProjectThreads(ctx context.Context) ([]thread.Thread, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]thread.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) ListSupervised(ctx context.Context) ([]thread.Thread, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]thread.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Threads is a mock for the thread lookups used by the message,
// moderation and conversation services.
type Threads struct {
	mock.Mock
}

func (m *Threads) Load(ctx context.Context, id string) (*thread.Thread, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*thread.Thread); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Threads) ListForUser(ctx context.Context, a actor.Actor) ([]thread.Thread, error) {
	args := m.Called(ctx, a)
	if list, ok := args.Get(0).([]thread.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Threads) ListForProject(ctx context.Context, a actor.Actor, projectID string) ([]thread.Thread, error) {
	args := m.Called(ctx, a, projectID)
	if list, ok := args.Get(0).([]thread.Thread); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Directory is a mock for user lookups by id.
type Directory struct {
	mock.Mock
}

func (m *Directory) GetMany(ctx context.Context, ids []string) (map[string]user.User, error) {
	args := m.Called(ctx, ids)
	if users, ok := args.Get(0).(map[string]user.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// MessageRepository is a mock for the message log storage.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Append(ctx context.Context, msg *message.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) Get(ctx context.Context, id string) (*message.Message, error) {
	args := m.Called(ctx, id)
	if msg, ok := args.Get(0).(*message.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MessageRepository) List(ctx context.Context, opts message.ListOptions) ([]message.Message, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]message.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MessageRepository) Decide(ctx context.Context, id string, status message.Status, decidedBy string, decidedAt time.Time) error {
	args := m.Called(ctx, id, status, decidedBy, decidedAt)
	return args.Error(0)
}

func (m *MessageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageRepository) ListPending(ctx context.Context, threadIDs []string) ([]message.Message, error) {
	args := m.Called(ctx, threadIDs)
	if list, ok := args.Get(0).([]message.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MessageRepository) LatestByClass(ctx context.Context, threadID string) (*message.Latest, error) {
	args := m.Called(ctx, threadID)
	if l, ok := args.Get(0).(*message.Latest); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MessageRepository) MarkRead(ctx context.Context, threadID, userID string, seq int64) error {
	args := m.Called(ctx, threadID, userID, seq)
	return args.Error(0)
}

func (m *MessageRepository) CountUnread(ctx context.Context, threadID, viewerID string, moderator bool) (int, error) {
	args := m.Called(ctx, threadID, viewerID, moderator)
	return args.Int(0), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Publisher is a mock for notification publishers.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, ev notify.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
