package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/repository"
	"github.com/google/uuid"
)

// Service is the identity provider used by the messaging core.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines user creation inputs.
type CreateRequest struct {
	ID          string
	DisplayName string
	Role        actor.Role
}

// Create registers a user.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*User, error) {
	if strings.TrimSpace(req.DisplayName) == "" || !req.Role.Valid() {
		return nil, ErrInvalidInput
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	u := &User{
		ID:          id,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        req.Role,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetMany returns the known users among ids keyed by ID. Unknown ids are
// omitted rather than reported.
func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("getting users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// IssueToken creates a new bearer token for the user and returns it. Only
// the token hash is stored.
func (s *Service) IssueToken(ctx context.Context, userID, description string) (string, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return "", err
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.repo.AddToken(ctx, HashToken(token), userID, description); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// ResolveToken maps a bearer token to the actor it was issued for.
func (s *Service) ResolveToken(ctx context.Context, token string) (actor.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return actor.Actor{}, ErrInvalidToken
	}
	userID, err := s.repo.LookupToken(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return actor.Actor{}, ErrInvalidToken
		}
		return actor.Actor{}, fmt.Errorf("looking up token: %w", err)
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return actor.Actor{}, ErrInvalidToken
		}
		return actor.Actor{}, err
	}
	return u.Actor(), nil
}

// ResolveActor loads the actor for a user id.
func (s *Service) ResolveActor(ctx context.Context, userID string) (actor.Actor, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return actor.Actor{}, err
	}
	return u.Actor(), nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
