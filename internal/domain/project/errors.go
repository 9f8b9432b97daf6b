package project

import "github.com/ganot/parley/internal/apperr"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = apperr.NotFound("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = apperr.Validation("invalid project input")
)
