package activity

import "github.com/ganot/parley/internal/apperr"

var (
	// ErrInvalidInput indicates an unusable activity entry.
	ErrInvalidInput = apperr.Validation("invalid activity input")
	// ErrForbidden indicates a non-admin asked for the audit log.
	ErrForbidden = apperr.Authorization("only admins may read the activity log")
)
