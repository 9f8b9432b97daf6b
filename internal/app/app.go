// Package app wires repositories, services and the notification hub into
// one graph shared by the server binary, the CLI and the test harness.
package app

import (
	"fmt"
	"log/slog"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/conversation"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
	"github.com/ganot/parley/internal/ids"
	"github.com/ganot/parley/internal/mcp"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/sqlite"
)

// Options configures New.
type Options struct {
	DB     *sqlite.DB
	Events notify.Hub // defaults to an in-memory hub
	NodeID int64
	Logger *slog.Logger
}

// App groups the services of one running instance.
type App struct {
	DB            *sqlite.DB
	Events        notify.Hub
	Cache         *conversation.Cache
	Users         *user.Service
	Projects      *project.Service
	Threads       *thread.Service
	Messages      *message.Service
	Moderation    *moderation.Service
	Conversations *conversation.Service
	Activity      *activity.Service
}

// New builds the service graph over an opened and migrated database.
func New(opts Options) (*App, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("app: database is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	events := opts.Events
	if events == nil {
		events = notify.NewMemoryHub(logger)
	}
	gen, err := ids.New(opts.NodeID)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	userRepo := sqlite.NewUserRepository(opts.DB)
	projectRepo := sqlite.NewProjectRepository(opts.DB)
	threadRepo := sqlite.NewThreadRepository(opts.DB)
	messageRepo := sqlite.NewMessageRepository(opts.DB)
	activityRepo := sqlite.NewActivityRepository(opts.DB)

	users := user.NewService(userRepo, logger)
	projects := project.NewService(projectRepo, logger)
	audit := activity.NewService(activityRepo, logger)
	threads := thread.NewService(threadRepo, projects, users, audit, events, logger)
	cache := conversation.NewCache(messageRepo)

	return &App{
		DB:            opts.DB,
		Events:        events,
		Cache:         cache,
		Users:         users,
		Projects:      projects,
		Threads:       threads,
		Messages:      message.NewService(messageRepo, threads, moderation.RequiresApproval, gen, cache, audit, events, logger),
		Moderation:    moderation.NewService(messageRepo, threads, cache, audit, events, logger),
		Conversations: conversation.NewService(threads, cache, messageRepo, users, logger),
		Activity:      audit,
	}, nil
}

// MCPServices exposes the graph to the tool and RPC surfaces.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Threads:       a.Threads,
		Messages:      a.Messages,
		Moderation:    a.Moderation,
		Conversations: a.Conversations,
		Activity:      a.Activity,
		Versions:      a.Events,
		Users:         a.Users,
	}
}
