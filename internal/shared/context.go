package shared

import (
	"context"

	"github.com/tourdesk/tourdesk/internal/policy"
)

type actorContextKey struct{}

// ContextWithActor stores the authenticated actor in context.
func ContextWithActor(ctx context.Context, actor policy.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the authenticated actor from context.
func ActorFromContext(ctx context.Context) (policy.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(policy.Actor)
	return actor, ok
}

// RequireActor is ActorFromContext returning ErrNoActor when absent.
func RequireActor(ctx context.Context) (policy.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return policy.Actor{}, ErrNoActor
	}
	return actor, nil
}
