package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/parley/internal/repository"
	"github.com/google/uuid"
)

// Service handles project registry operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID           string
	Title        string
	ClientID     string
	FreelancerID string
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.ClientID) == "" {
		return nil, ErrInvalidInput
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	proj := &Project{
		ID:           id,
		Title:        strings.TrimSpace(req.Title),
		ClientID:     req.ClientID,
		FreelancerID: req.FreelancerID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrInvalidInput
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.InfoContext(ctx, "project registered", "project_id", proj.ID)
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// ListForUser returns the projects a client or freelancer is assigned to.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Project, error) {
	return s.repo.ListForUser(ctx, userID)
}

// AssignFreelancer sets the project's freelancer.
func (s *Service) AssignFreelancer(ctx context.Context, projectID, freelancerID string) (*Project, error) {
	if strings.TrimSpace(freelancerID) == "" {
		return nil, ErrInvalidInput
	}
	if err := s.repo.SetFreelancer(ctx, projectID, freelancerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrForeignKeyViolation):
			return nil, ErrInvalidInput
		}
		return nil, fmt.Errorf("assigning freelancer: %w", err)
	}
	return s.Get(ctx, projectID)
}
