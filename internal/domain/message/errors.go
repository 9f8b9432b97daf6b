package message

import "github.com/ganot/parley/internal/apperr"

var (
	// ErrMessageNotFound indicates the message doesn't exist.
	ErrMessageNotFound = apperr.NotFound("message not found")
	// ErrEmptyContent indicates content that is blank after trimming.
	ErrEmptyContent = apperr.Validation("message content is empty")
	// ErrContentTooLong indicates content over MaxContentRunes.
	ErrContentTooLong = apperr.Validation("message content is too long")
	// ErrThreadRequired indicates a missing thread id.
	ErrThreadRequired = apperr.Validation("thread id is required")
	// ErrInvalidSeq indicates a negative read marker.
	ErrInvalidSeq = apperr.Validation("invalid sequence number")
	// ErrForbidden indicates the actor is not a party to the thread.
	ErrForbidden = apperr.Authorization("not permitted in this thread")
)
