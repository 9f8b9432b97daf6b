package moderation

import "github.com/ganot/parley/internal/apperr"

var (
	// ErrInvalidDecision indicates a decision other than approved/rejected.
	ErrInvalidDecision = apperr.Validation("decision must be approved or rejected")
	// ErrNotPending indicates the message has no pending approval to decide.
	ErrNotPending = apperr.State("message is not pending approval")
	// ErrForbidden indicates the actor lacks moderation authority.
	ErrForbidden = apperr.Authorization("no moderation authority over this thread")
)
