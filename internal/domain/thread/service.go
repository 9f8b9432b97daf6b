package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/parley/internal/domain/activity"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/notify"
	"github.com/ganot/parley/internal/repository"
	"github.com/google/uuid"
)

// Service is the thread registry. It resolves the single conversation for
// a (project, type) pair or a direct participant set, creating it on first
// use.
type Service struct {
	threads    Repository
	projects   ProjectRegistry
	users      Directory
	activities ActivityRepository
	events     Publisher
	logger     *slog.Logger
}

// NewService creates a new thread registry.
func NewService(
	threads Repository,
	projects ProjectRegistry,
	users Directory,
	activities ActivityRepository,
	events Publisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if events == nil {
		events = notify.Discard
	}
	return &Service{
		threads:    threads,
		projects:   projects,
		users:      users,
		activities: activities,
		events:     events,
		logger:     logger,
	}
}

// ResolveRequest identifies the thread to resolve. ParticipantHint supplies
// non-admin participant ids used when seeding a new thread.
type ResolveRequest struct {
	ProjectID       string
	Type            Type
	ParticipantHint []string
}

// ResolveOrCreate returns the thread for the request, creating it if it
// does not exist yet. Concurrent callers converge on one stored thread:
// the loser of an insert race reads back the winner.
func (s *Service) ResolveOrCreate(ctx context.Context, a actor.Actor, req ResolveRequest) (*Thread, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}
	if req.Type.IsProject() {
		return s.resolveProject(ctx, a, req)
	}
	return s.resolveDirect(ctx, a, req)
}

func (s *Service) resolveProject(ctx context.Context, a actor.Actor, req ResolveRequest) (*Thread, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, ErrProjectRequired
	}
	if !a.Can(actor.ActionResolveProjectThread) {
		return nil, ErrForbidden
	}

	existing, err := s.threads.FindByProject(ctx, projectID, req.Type)
	if err == nil {
		if !CanAccess(a, existing) {
			return nil, ErrForbidden
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("finding project thread: %w", err)
	}

	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return nil, ErrUnknownProject
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	participants, err := s.seedProjectParticipants(ctx, proj, req.Type, req.ParticipantHint)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Thread{
		ID:           uuid.NewString(),
		ProjectID:    &proj.ID,
		Type:         req.Type,
		Participants: participants,
		Title:        fmt.Sprintf("%s · %s", proj.Title, req.Type.Label()),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !CanAccess(a, t) {
		return nil, ErrForbidden
	}

	return s.create(ctx, a, t, func() (*Thread, error) {
		return s.threads.FindByProject(ctx, proj.ID, req.Type)
	})
}

// seedProjectParticipants fills each party role of the topology from the
// project registry, falling back to hinted users holding that role.
func (s *Service) seedProjectParticipants(ctx context.Context, proj *project.Project, typ Type, hint []string) ([]Participant, error) {
	hinted, err := s.users.GetMany(ctx, NormalizeParticipants(hint))
	if err != nil {
		return nil, fmt.Errorf("resolving participant hint: %w", err)
	}

	participants := make([]Participant, 0, len(typ.PartyRoles()))
	for _, role := range typ.PartyRoles() {
		id := ""
		switch role {
		case actor.RoleClient:
			id = proj.ClientID
		case actor.RoleFreelancer:
			id = proj.FreelancerID
		}
		if id == "" {
			for _, u := range hinted {
				if u.Role == role {
					id = u.ID
					break
				}
			}
		}
		if id == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingParty, role)
		}
		participants = append(participants, Participant{UserID: id, Role: role})
	}
	return participants, nil
}

func (s *Service) resolveDirect(ctx context.Context, a actor.Actor, req ResolveRequest) (*Thread, error) {
	if strings.TrimSpace(req.ProjectID) != "" {
		return nil, ErrProjectNotAllowed
	}
	if !a.Can(actor.ActionResolveDirectThread) {
		return nil, ErrForbidden
	}

	ids := NormalizeParticipants(append([]string{a.UserID}, req.ParticipantHint...))
	if len(ids) < 2 {
		return nil, ErrTooFewParticipants
	}
	key := DirectKey(ids)

	existing, err := s.threads.FindDirect(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("finding direct thread: %w", err)
	}

	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving participants: %w", err)
	}
	participants := make([]Participant, 0, len(ids))
	for _, id := range ids {
		u, ok := users[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
		}
		participants = append(participants, Participant{UserID: u.ID, Role: u.Role})
	}

	now := time.Now().UTC()
	t := &Thread{
		ID:           uuid.NewString(),
		Type:         TypeDirect,
		Participants: participants,
		DirectKey:    key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.create(ctx, a, t, func() (*Thread, error) {
		return s.threads.FindDirect(ctx, key)
	})
}

// create inserts t, or on a uniqueness conflict returns the stored winner.
func (s *Service) create(ctx context.Context, a actor.Actor, t *Thread, winner func() (*Thread, error)) (*Thread, error) {
	err := s.threads.Create(ctx, t)
	if errors.Is(err, repository.ErrConflict) {
		existing, ferr := winner()
		if ferr != nil {
			return nil, fmt.Errorf("loading concurrently created thread: %w", ferr)
		}
		s.logger.DebugContext(ctx, "thread creation race resolved", "thread_id", existing.ID, "type", existing.Type)
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	s.logger.InfoContext(ctx, "thread created", "thread_id", t.ID, "type", t.Type, "project_id", t.ProjectIDValue())

	if s.activities != nil {
		if err := s.activities.Log(ctx, &activity.ActivityEntry{
			ProjectID:    t.ProjectID,
			ThreadID:     t.ID,
			ActorID:      a.UserID,
			ActivityType: activity.TypeThreadCreated,
			Summary:      fmt.Sprintf("created %s thread %s", t.Type, t.ID),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to log thread creation", "thread_id", t.ID, "error", err)
		}
	}
	if err := s.events.Publish(ctx, notify.Event{
		Kind:      notify.KindThreadCreated,
		ThreadID:  t.ID,
		ProjectID: t.ProjectIDValue(),
		ActorID:   a.UserID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish thread creation", "thread_id", t.ID, "error", err)
	}
	return t, nil
}

// Get returns a thread the actor can access.
func (s *Service) Get(ctx context.Context, a actor.Actor, id string) (*Thread, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(a, t) {
		return nil, ErrForbidden
	}
	return t, nil
}

// Load returns a thread without an access check, for callers that apply
// their own rule.
func (s *Service) Load(ctx context.Context, id string) (*Thread, error) {
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (*Thread, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrThreadNotFound
	}
	t, err := s.threads.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("getting thread: %w", err)
	}
	return t, nil
}

// ListForUser returns every thread the actor belongs to: enumerated
// memberships plus, for admins, all project and supervised threads.
func (s *Service) ListForUser(ctx context.Context, a actor.Actor) ([]Thread, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	own, err := s.threads.ListForParticipant(ctx, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	if !a.IsAdmin() {
		return own, nil
	}

	projectThreads, err := s.threads.ListProjectThreads(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing project threads: %w", err)
	}
	supervised, err := s.threads.ListSupervised(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing supervised threads: %w", err)
	}
	seen := make(map[string]struct{}, len(own)+len(projectThreads)+len(supervised))
	out := make([]Thread, 0, len(own)+len(projectThreads)+len(supervised))
	for _, group := range [][]Thread{own, projectThreads, supervised} {
		for _, t := range group {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	return out, nil
}

// ListForProject returns the existing project threads the actor can access.
func (s *Service) ListForProject(ctx context.Context, a actor.Actor, projectID string) ([]Thread, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrProjectRequired
	}
	all, err := s.threads.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project threads: %w", err)
	}
	out := make([]Thread, 0, len(all))
	for i := range all {
		if CanAccess(a, &all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}
