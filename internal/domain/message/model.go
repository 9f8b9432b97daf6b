package message

import (
	"time"

	"github.com/ganot/parley/internal/domain/actor"
)

// Status is the approval state of a message that requires approval.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const (
	// MaxContentRunes bounds message length after trimming.
	MaxContentRunes = 4000
	// DefaultListLimit applies when a list limit is zero or negative.
	DefaultListLimit = 50
	// MaxListLimit caps list limits.
	MaxListLimit = 500
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Message is one unit of communication within a thread. RequiresApproval
// is fixed at creation; ApprovalStatus is nil exactly when it is false.
type Message struct {
	ID               string     `json:"id"`
	ThreadID         string     `json:"thread_id"`
	SenderID         string     `json:"sender_id"`
	SenderRole       actor.Role `json:"sender_role"`
	Content          string     `json:"content"`
	SentAt           time.Time  `json:"sent_at"`
	Seq              int64      `json:"seq"`
	RequiresApproval bool       `json:"requires_approval"`
	ApprovalStatus   *Status    `json:"approval_status"`
	DecidedBy        *string    `json:"decided_by,omitempty"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
}

// StatusValue returns the approval status or "" when none applies.
func (m *Message) StatusValue() Status {
	if m.ApprovalStatus == nil {
		return ""
	}
	return *m.ApprovalStatus
}

// IsPending reports whether the message awaits a moderation decision.
func (m *Message) IsPending() bool {
	return m.StatusValue() == StatusPending
}

// IsPublic reports whether every participant of the thread may see the
// message.
func (m *Message) IsPublic() bool {
	return !m.RequiresApproval || m.StatusValue() == StatusApproved
}

// Visible reports whether viewerID may see the message. Moderators of the
// owning thread see everything; senders always see their own messages.
func Visible(m *Message, viewerID string, isModerator bool) bool {
	if m == nil {
		return false
	}
	return m.IsPublic() || m.SenderID == viewerID || isModerator
}

// Latest is the per-thread snapshot the conversation cache is built from.
type Latest struct {
	// Public is the newest message visible to every participant.
	Public *Message
	// Overall is the newest message of any status.
	Overall *Message
	// HiddenBySender holds each sender's newest non-public message.
	HiddenBySender map[string]*Message
}

// ListOptions selects messages for a viewer.
type ListOptions struct {
	ThreadID string
	ViewerID string
	// Moderator includes messages hidden from ordinary participants.
	Moderator bool
	Limit     int
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
