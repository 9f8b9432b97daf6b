package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeThreadCreated   ActivityType = "thread_created"
	TypeMessageSent     ActivityType = "message_sent"
	TypeMessageApproved ActivityType = "message_approved"
	TypeMessageRejected ActivityType = "message_rejected"
	TypeMessageDeleted  ActivityType = "message_deleted"
)

// ActivityEntry represents an event in the audit log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    *string      `json:"project_id,omitempty"`
	ThreadID     string       `json:"thread_id"`
	MessageID    *string      `json:"message_id,omitempty"`
	ActorID      string       `json:"actor_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
