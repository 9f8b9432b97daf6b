// Package conversation builds the per-viewer conversation list.
package conversation

import (
	"time"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/thread"
)

// SnippetRunes is the maximum snippet length before the ellipsis.
const SnippetRunes = 120

// ParticipantDetail is a participant with display details.
type ParticipantDetail struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Role        actor.Role `json:"role"`
}

// Conversation is a read projection of a thread for one viewer. It is
// derived; the message log stays authoritative.
type Conversation struct {
	ThreadID            string              `json:"thread_id"`
	ProjectID           *string             `json:"project_id,omitempty"`
	Type                thread.Type         `json:"type"`
	Title               string              `json:"title"`
	Participants        []ParticipantDetail `json:"participants"`
	LastMessageID       string              `json:"last_message_id,omitempty"`
	LastMessageSnippet  string              `json:"last_message_snippet"`
	LastMessageAt       *time.Time          `json:"last_message_at,omitempty"`
	LastMessageSenderID string              `json:"last_message_sender_id,omitempty"`
	UnreadCount         int                 `json:"unread_count"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// Snippet truncates content to SnippetRunes runes, appending an ellipsis
// when anything was cut.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetRunes {
		return content
	}
	return string(runes[:SnippetRunes]) + "…"
}
