package transport

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig sets the per-user token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// limiterPool is a per-identifier token-bucket pool. A limiter is created on
// first use for a key (the user id, or the client IP for unauthenticated
// calls) and dropped once unseen for ttl by cleanupLoop.
type limiterPool struct {
	mu            sync.Mutex
	m             map[string]*limiterEntry
	cfg           RateLimitConfig
	ttl           time.Duration
	cleanupPeriod time.Duration
	done          chan struct{}
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	if cfg.RPS <= 0 {
		cfg.RPS = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}
	return &limiterPool{cfg: cfg, ttl: 10 * time.Minute, cleanupPeriod: time.Minute, done: make(chan struct{})}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*limiterEntry)
	}
	if e, ok := p.m[key]; ok {
		e.lastSeen = time.Now()
		return e.l
	}
	l := rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: time.Now()}
	return l
}

// Allow reports whether a request for key fits in its bucket.
func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

// cleanupLoop evicts idle limiters until ctx is done.
func (p *limiterPool) cleanupLoop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.cleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.evict(time.Now().Add(-p.ttl))
		}
	}
}

func (p *limiterPool) evict(cutoff time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// RateLimitMiddleware rejects requests over the caller's budget with 429.
// Idle limiters are evicted in the background until ctx is done. onLimited
// may be nil.
func RateLimitMiddleware(ctx context.Context, cfg RateLimitConfig, onLimited func()) func(http.Handler) http.Handler {
	limiters := newLimiterPool(cfg)
	go limiters.cleanupLoop(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.Allow(rateKey(r)) {
				if onLimited != nil {
					onLimited()
				}
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if a, ok := ActorFromContext(r.Context()); ok {
		return "user:" + a.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
