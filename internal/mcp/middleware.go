package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/parley/internal/domain/actor"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const actorKey contextKey = iota

// ActorFromContext extracts the calling actor from context.
func ActorFromContext(ctx context.Context) (actor.Actor, bool) {
	a, ok := ctx.Value(actorKey).(actor.Actor)
	return a, ok
}

// WithActor stores the calling actor in context.
func WithActor(ctx context.Context, a actor.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorResolver maps credentials to the actor they belong to.
type ActorResolver interface {
	ResolveToken(ctx context.Context, token string) (actor.Actor, error)
	ResolveActor(ctx context.Context, userID string) (actor.Actor, error)
}

func skipsAuth(method string) bool {
	return method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/")
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver ActorResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if skipsAuth(method) {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			a, err := resolver.ResolveToken(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			return next(WithActor(ctx, a), method, req)
		}
	}
}

// noAuthMiddleware acts as defaultUser when auth is disabled. Calls proceed
// without an actor if the user cannot be resolved; tools then refuse them.
func noAuthMiddleware(resolver ActorResolver, defaultUser string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if skipsAuth(method) || resolver == nil || defaultUser == "" {
				return next(ctx, method, req)
			}
			if a, err := resolver.ResolveActor(ctx, defaultUser); err == nil {
				ctx = WithActor(ctx, a)
			}
			return next(ctx, method, req)
		}
	}
}
