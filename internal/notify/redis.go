package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultChannel   = "parley:activity"
	defaultKeyPrefix = "parley:thread:version:"
)

// RedisHub shares activity between server instances through Redis: a
// per-thread INCR counter for polling and a pub/sub channel for pushes.
type RedisHub struct {
	client  *redis.Client
	channel string
	prefix  string
	owned   bool
	logger  *slog.Logger
}

// NewRedisHub connects to Redis and verifies the connection.
func NewRedisHub(redisURL string, logger *slog.Logger) (*RedisHub, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	hub := NewRedisHubWithClient(client, logger)
	hub.owned = true
	return hub, nil
}

// NewRedisHubWithClient creates a hub from an existing client. The caller
// keeps ownership of the client.
func NewRedisHubWithClient(client *redis.Client, logger *slog.Logger) *RedisHub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisHub{
		client:  client,
		channel: defaultChannel,
		prefix:  defaultKeyPrefix,
		logger:  logger,
	}
}

func (h *RedisHub) key(threadID string) string {
	return h.prefix + threadID
}

// Publish bumps the thread counter and broadcasts the event.
func (h *RedisHub) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	version, err := h.client.Incr(ctx, h.key(ev.ThreadID)).Result()
	if err != nil {
		return fmt.Errorf("bump thread version: %w", err)
	}
	ev.Version = version

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := h.client.Publish(ctx, h.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Versions reads the activity counters of the requested threads.
func (h *RedisHub) Versions(ctx context.Context, threadIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(threadIDs))
	for i, id := range threadIDs {
		keys[i] = h.key(id)
	}
	values, err := h.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read thread versions: %w", err)
	}
	for i, id := range threadIDs {
		out[id] = 0
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version of thread %s: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

// Subscribe listens on the activity channel until cancel is called or ctx
// ends.
func (h *RedisHub) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ps := h.client.Subscribe(ctx, h.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe to activity: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					h.logger.WarnContext(ctx, "discarding malformed activity event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				case <-ctx.Done():
					cancel()
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

// Close releases the client when the hub created it.
func (h *RedisHub) Close() error {
	if h.owned {
		return h.client.Close()
	}
	return nil
}
