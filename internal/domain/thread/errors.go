package thread

import "github.com/ganot/parley/internal/apperr"

var (
	// ErrThreadNotFound indicates the thread doesn't exist.
	ErrThreadNotFound = apperr.NotFound("thread not found")
	// ErrInvalidType indicates an unknown thread type.
	ErrInvalidType = apperr.Validation("invalid thread type")
	// ErrProjectRequired indicates a project-scoped type without a project id.
	ErrProjectRequired = apperr.Validation("project id required for project threads")
	// ErrProjectNotAllowed indicates a direct thread given a project id.
	ErrProjectNotAllowed = apperr.Validation("direct threads cannot be scoped to a project")
	// ErrUnknownProject indicates the project registry has no such project.
	ErrUnknownProject = apperr.Validation("unknown project")
	// ErrTooFewParticipants indicates a direct thread with fewer than two users.
	ErrTooFewParticipants = apperr.Validation("direct threads need at least two participants")
	// ErrUnknownParticipant indicates a participant id with no user behind it.
	ErrUnknownParticipant = apperr.Validation("unknown participant")
	// ErrMissingParty indicates the project lacks a party the topology needs.
	ErrMissingParty = apperr.State("project has no user for a required thread party")
	// ErrForbidden indicates the actor may not use the thread.
	ErrForbidden = apperr.Authorization("not a participant of this thread")
)
