// Package notify carries the "thread X has new activity" hook to clients,
// by push (Subscribe) or by poll (Versions).
package notify

import (
	"context"
	"time"
)

// Kind names an activity event.
type Kind string

const (
	KindThreadCreated   Kind = "thread.created"
	KindMessageCreated  Kind = "message.created"
	KindMessageApproved Kind = "message.approved"
	KindMessageRejected Kind = "message.rejected"
	KindMessageDeleted  Kind = "message.deleted"
)

// Event announces activity on a thread. Version is the thread's activity
// counter after the event and is assigned by the hub.
type Event struct {
	Kind             Kind      `json:"kind"`
	ThreadID         string    `json:"thread_id"`
	ProjectID        string    `json:"project_id,omitempty"`
	MessageID        string    `json:"message_id,omitempty"`
	ActorID          string    `json:"actor_id,omitempty"`
	RequiresApproval bool      `json:"requires_approval,omitempty"`
	Version          int64     `json:"version"`
	At               time.Time `json:"at"`
}

// Held reports whether ev concerns a message ordinary participants cannot
// see: a send awaiting approval, or a rejection.
func (ev Event) Held() bool {
	return ev.RequiresApproval || ev.Kind == KindMessageRejected
}

// Redacted returns ev without the fields identifying the message or its
// sender. The thread and version still tell the viewer to refresh.
func (ev Event) Redacted() Event {
	ev.MessageID = ""
	ev.ActorID = ""
	ev.RequiresApproval = false
	return ev
}

// Hub publishes events and answers activity polls.
type Hub interface {
	Publish(ctx context.Context, ev Event) error
	Versions(ctx context.Context, threadIDs []string) (map[string]int64, error)
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
	Close() error
}

// Discard is a publisher that drops every event.
var Discard discard

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
