package thread

import (
	"context"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/domain/user"
	"github.com/ganot/parley/internal/notify"
)

// Repository provides persistence for threads. Create must return
// repository.ErrConflict when the storage uniqueness constraint on
// (project_id, type) or the direct key rejects the insert.
type Repository interface {
	Create(ctx context.Context, t *Thread) error
	Get(ctx context.Context, id string) (*Thread, error)
	FindByProject(ctx context.Context, projectID string, typ Type) (*Thread, error)
	FindDirect(ctx context.Context, directKey string) (*Thread, error)
	ListByProject(ctx context.Context, projectID string) ([]Thread, error)
	ListForParticipant(ctx context.Context, userID string) ([]Thread, error)
	ListProjectThreads(ctx context.Context) ([]Thread, error)
	// ListSupervised returns direct threads with a client and a freelancer
	// participant and no admin.
	ListSupervised(ctx context.Context) ([]Thread, error)
}

// ProjectRegistry supplies project parties.
type ProjectRegistry interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// Directory resolves users.
type Directory interface {
	GetMany(ctx context.Context, ids []string) (map[string]user.User, error)
}

// ActivityRepository logs thread activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Publisher announces thread activity.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}
