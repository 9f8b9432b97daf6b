package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const subscriberBuffer = 64

// MemoryHub is an in-process Hub for single-node deployments and tests.
type MemoryHub struct {
	mu       sync.Mutex
	versions map[string]int64
	subs     map[int]chan Event
	nextSub  int
	closed   bool
	logger   *slog.Logger
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub(logger *slog.Logger) *MemoryHub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemoryHub{
		versions: make(map[string]int64),
		subs:     make(map[int]chan Event),
		logger:   logger,
	}
}

// Publish bumps the thread's version and fans the event out. Slow
// subscribers lose events rather than block publishers; pollers still see
// the version bump.
func (h *MemoryHub) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.versions[ev.ThreadID]++
	ev.Version = h.versions[ev.ThreadID]
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.WarnContext(ctx, "dropping event for slow subscriber", "subscriber", id, "thread_id", ev.ThreadID)
		}
	}
	return nil
}

// Versions returns the activity counter of each requested thread. Threads
// with no activity report zero.
func (h *MemoryHub) Versions(_ context.Context, threadIDs []string) (map[string]int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int64, len(threadIDs))
	for _, id := range threadIDs {
		out[id] = h.versions[id]
	}
	return out, nil
}

// Subscribe returns a channel of subsequent events and a cancel func. The
// channel closes when cancel is called, ctx ends or the hub closes.
func (h *MemoryHub) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			h.mu.Lock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
			h.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel, nil
}

// Close closes every subscription.
func (h *MemoryHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	return nil
}
