package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/thread"
)

// ThreadLister lists the threads a user can see.
type ThreadLister interface {
	ListForUser(ctx context.Context, a actor.Actor) ([]thread.Thread, error)
}

// handleEvents streams hub events for the caller's threads as server-sent
// events. An event for an unknown thread triggers one refresh of the
// visible set, so threads created after the stream opened are picked up.
// Events about held messages reach non-moderators redacted, except for the
// sender's own.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, ok := ActorFromContext(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events, cancel, err := s.events.Subscribe(ctx)
	if err != nil {
		http.Error(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	visible, err := s.visibleThreads(ctx, a)
	if err != nil {
		http.Error(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	sseWrite(w, "ready", map[string]int{"threads": len(visible)})
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sseWrite(w, "ping", time.Now().UTC().Format(time.RFC3339Nano))
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			moderates, ok := visible[ev.ThreadID]
			if !ok {
				if refreshed, err := s.visibleThreads(ctx, a); err == nil {
					visible = refreshed
				}
				if moderates, ok = visible[ev.ThreadID]; !ok {
					continue
				}
			}
			if ev.Held() && !moderates && ev.ActorID != a.UserID {
				ev = ev.Redacted()
			}
			sseWrite(w, string(ev.Kind), ev)
			flusher.Flush()
		}
	}
}

// visibleThreads maps each thread the actor can see to whether the actor
// moderates it.
func (s *Server) visibleThreads(ctx context.Context, a actor.Actor) (map[string]bool, error) {
	threads, err := s.threads.ListForUser(ctx, a)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(threads))
	for i := range threads {
		out[threads[i].ID] = thread.CanModerate(a, &threads[i])
	}
	return out, nil
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

func sseWrite(w http.ResponseWriter, event string, data any) {
	payload := marshalPayload(data)
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(payload, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	default:
		bytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(bytes)
	}
}
