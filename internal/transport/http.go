package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/parley/internal/apperr"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/mcp"
	"github.com/ganot/parley/internal/metrics"
	"github.com/ganot/parley/internal/notify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MCPHandler handles method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, a actor.Actor, method string, params json.RawMessage) (any, error)
}

// Options configures the HTTP surface. Events, Threads, Metrics, MCP and
// RateLimit are optional; leaving one out drops the matching route or
// middleware. Context bounds background work started by the router and
// should be cancelled on shutdown; nil means it runs for the process
// lifetime.
type Options struct {
	Context   context.Context
	Handler   MCPHandler
	Resolver  ActorResolver
	Events    notify.Hub
	Threads   ThreadLister
	Metrics   *metrics.Metrics
	MCP       http.Handler
	RateLimit *RateLimitConfig
	Logger    *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler   MCPHandler
	events    notify.Hub
	threads   ThreadLister
	metrics   *metrics.Metrics
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	srv := &Server{
		handler:   opts.Handler,
		events:    opts.Events,
		threads:   opts.Threads,
		metrics:   opts.Metrics,
		logger:    logger,
		heartbeat: 25 * time.Second,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Resolver != nil {
			r.Use(AuthMiddleware(opts.Resolver))
		}
		if opts.RateLimit != nil {
			var onLimited func()
			if opts.Metrics != nil {
				onLimited = opts.Metrics.RateLimited
			}
			r.Use(RateLimitMiddleware(ctx, *opts.RateLimit, onLimited))
		}
		r.Post("/rpc", srv.handleRPC)
		if opts.Events != nil && opts.Threads != nil {
			r.Get("/events", srv.handleEvents)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	a, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !mcp.IsMethod(req.Method) {
		s.observe(req.Method, "unknown_method", 0)
		WriteError(w, req.ID, ErrMethodNotFound, "method not found: "+req.Method, nil)
		return
	}

	start := time.Now()
	result, err := s.handler.Handle(r.Context(), a, req.Method, req.Params)
	if err != nil {
		apiErr := mcp.MapError(err)
		if apiErr.Kind == apperr.KindInternal {
			s.logger.ErrorContext(r.Context(), "rpc failed", "method", req.Method, "user_id", a.UserID, "error", err)
		}
		s.observe(req.Method, string(apiErr.Kind), time.Since(start))
		WriteAppError(w, req.ID, apiErr)
		return
	}

	s.observe(req.Method, "ok", time.Since(start))
	WriteResult(w, req.ID, result)
}

func (s *Server) observe(method, outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	if !mcp.IsMethod(method) {
		method = "unknown"
	}
	s.metrics.ObserveRPC(method, outcome, elapsed)
}
