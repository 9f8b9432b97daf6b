package user

import "github.com/ganot/parley/internal/apperr"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = apperr.NotFound("user not found")
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = apperr.Validation("invalid user input")
	// ErrInvalidToken indicates a bearer token that maps to no user.
	ErrInvalidToken = apperr.Authorization("invalid token")
	// ErrUserExists indicates a duplicate user id.
	ErrUserExists = apperr.State("user already exists")
)
