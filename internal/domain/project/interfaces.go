package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	ListForUser(ctx context.Context, userID string) ([]Project, error)
	SetFreelancer(ctx context.Context, projectID, freelancerID string) error
}
