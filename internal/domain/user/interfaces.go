package user

import "context"

// Repository provides persistence for users and their API tokens.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetMany(ctx context.Context, ids []string) ([]User, error)
	List(ctx context.Context) ([]User, error)
	AddToken(ctx context.Context, tokenHash, userID, description string) error
	LookupToken(ctx context.Context, tokenHash string) (string, error)
}
