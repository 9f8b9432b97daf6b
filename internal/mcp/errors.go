package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/message"
	"github.com/ganot/parley/internal/domain/moderation"
	"github.com/ganot/parley/internal/domain/thread"
	"github.com/ganot/parley/internal/domain/user"
)

// ErrUnauthenticated indicates a call that carried no resolvable actor.
var ErrUnauthenticated = apperr.Authorization("unauthenticated")

// APIError represents an MCP error response.
type APIError struct {
	Code         string      `json:"code"`
	Kind         apperr.Kind `json:"kind"`
	Message      string      `json:"message"`
	RecoveryHint string      `json:"recovery_hint,omitempty"`
	cause        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap keeps the domain error reachable for errors.Is and apperr.KindOf.
func (e *APIError) Unwrap() error {
	return e.cause
}

// MapError maps domain errors to MCP error codes. Errors of no known kind
// map to INTERNAL with the message withheld.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := apperr.KindOf(err)
	out := &APIError{Kind: kind, Message: err.Error(), cause: err}
	switch {
	case errors.Is(err, thread.ErrThreadNotFound):
		out.Code, out.RecoveryHint = "THREAD_NOT_FOUND", "Check the thread id or resolve the thread again"
	case errors.Is(err, message.ErrMessageNotFound):
		out.Code, out.RecoveryHint = "MESSAGE_NOT_FOUND", "Refresh the thread; the message may have been deleted"
	case errors.Is(err, moderation.ErrNotPending):
		out.Code, out.RecoveryHint = "NOT_PENDING", "Another moderator already decided; refresh the thread"
	case errors.Is(err, thread.ErrMissingParty):
		out.Code, out.RecoveryHint = "MISSING_PARTY", "Assign the project's freelancer or pass participant_ids"
	case errors.Is(err, user.ErrInvalidToken), errors.Is(err, ErrUnauthenticated):
		out.Code, out.RecoveryHint = "UNAUTHENTICATED", "Send a valid bearer token"
	default:
		switch kind {
		case apperr.KindValidation:
			out.Code = "INVALID_INPUT"
		case apperr.KindAuthorization:
			out.Code, out.RecoveryHint = "FORBIDDEN", "The current user has no access to this resource"
		case apperr.KindState:
			out.Code, out.RecoveryHint = "STALE_STATE", "Refresh and retry"
		case apperr.KindNotFound:
			out.Code = "NOT_FOUND"
		case apperr.KindTransport:
			out.Code, out.RecoveryHint = "UNAVAILABLE", "Retry later"
		default:
			out.Code, out.Message = "INTERNAL", "internal error"
		}
	}
	return out
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
