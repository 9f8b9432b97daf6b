package conversation

import (
	"context"
	"sync"

	"github.com/ganot/parley/internal/domain/message"
)

// Cache keeps, per thread, the latest message of each viewer class: the
// newest public message, the newest message overall (what moderators see)
// and each sender's newest hidden message. Appends update a loaded entry
// in place; moderation and deletes invalidate it.
type Cache struct {
	loader Loader

	mu      sync.Mutex
	entries map[string]*entry
	// gens counts writes per thread so a load that raced with a write is
	// not stored.
	gens map[string]uint64
}

type entry struct {
	public   *message.Message
	overall  *message.Message
	bySender map[string]*message.Message
}

// NewCache creates an empty cache backed by loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
	}
}

// OnAppend folds a newly stored message into the thread's entry.
func (c *Cache) OnAppend(m message.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[m.ThreadID]++
	e, ok := c.entries[m.ThreadID]
	if !ok {
		return
	}
	msg := &m
	if newer(msg, e.overall) {
		e.overall = msg
	}
	if msg.IsPublic() {
		if newer(msg, e.public) {
			e.public = msg
		}
		return
	}
	if newer(msg, e.bySender[msg.SenderID]) {
		e.bySender[msg.SenderID] = msg
	}
}

// Invalidate drops the thread's entry; the next read reloads it.
func (c *Cache) Invalidate(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[threadID]++
	delete(c.entries, threadID)
}

// Latest returns the newest message of the thread visible to viewerID, or
// nil when the viewer can see none.
func (c *Cache) Latest(ctx context.Context, threadID, viewerID string, moderator bool) (*message.Message, error) {
	c.mu.Lock()
	e, ok := c.entries[threadID]
	gen := c.gens[threadID]
	if ok {
		m := e.visibleTo(viewerID, moderator)
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	latest, err := c.loader.LatestByClass(ctx, threadID)
	if err != nil {
		return nil, err
	}
	e = newEntry(latest)

	c.mu.Lock()
	if c.gens[threadID] == gen {
		c.entries[threadID] = e
	}
	c.mu.Unlock()

	return e.visibleTo(viewerID, moderator), nil
}

// Len reports the number of loaded threads.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func newEntry(l *message.Latest) *entry {
	e := &entry{bySender: make(map[string]*message.Message)}
	if l == nil {
		return e
	}
	e.public = l.Public
	e.overall = l.Overall
	for sender, m := range l.HiddenBySender {
		e.bySender[sender] = m
	}
	return e
}

func (e *entry) visibleTo(viewerID string, moderator bool) *message.Message {
	var m *message.Message
	if moderator {
		m = e.overall
	} else {
		m = e.public
		if own := e.bySender[viewerID]; newer(own, m) {
			m = own
		}
	}
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

// newer reports whether a sorts after b in thread order.
func newer(a, b *message.Message) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if !a.SentAt.Equal(b.SentAt) {
		return a.SentAt.After(b.SentAt)
	}
	return a.Seq > b.Seq
}
