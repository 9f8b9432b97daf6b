package client

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Watcher polls per-thread activity versions and refreshes whatever the
// registered surfaces show for threads that changed.
type Watcher struct {
	api      API
	surfaces []Surface
	logger   *slog.Logger

	mu       sync.Mutex
	versions map[string]int64
}

// NewWatcher creates a watcher over the given surfaces.
func NewWatcher(api API, logger *slog.Logger, surfaces ...Surface) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{api: api, surfaces: surfaces, logger: logger, versions: make(map[string]int64)}
}

// Poll fetches versions once and refreshes changed threads. It returns
// the ids of the threads that changed since the previous poll, sorted.
func (w *Watcher) Poll(ctx context.Context) ([]string, error) {
	current, err := retryRead(ctx, func() (map[string]int64, error) {
		return w.api.PollActivity(ctx, nil)
	})
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	var changed []string
	for id, v := range current {
		if w.versions[id] != v {
			changed = append(changed, id)
		}
	}
	w.versions = maps.Clone(current)
	w.mu.Unlock()

	if len(changed) == 0 {
		return nil, nil
	}
	slices.Sort(changed)

	var errs []error
	for _, s := range w.surfaces {
		for _, id := range changed {
			if v, ok := s.View(id); ok {
				errs = append(errs, v.Refresh(ctx))
			}
		}
		errs = append(errs, s.Refresh(ctx))
	}
	return changed, errors.Join(errs...)
}

// Run polls every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed, err := w.Poll(ctx)
			if err != nil {
				w.logger.Warn("activity poll failed", "error", err)
				continue
			}
			if len(changed) > 0 {
				w.logger.Debug("threads changed", "count", len(changed))
			}
		}
	}
}
