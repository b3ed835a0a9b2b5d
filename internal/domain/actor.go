package domain

import (
	"context"
	"strings"
)

// Actor is the user on whose behalf an operation runs.
type Actor struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
}

// SafeKey returns the actor key, falling back to the display name and
// finally to "unknown" so that authorship is never stored blank.
func (a Actor) SafeKey() string {
	if k := strings.TrimSpace(a.Key); k != "" {
		return k
	}
	if n := strings.TrimSpace(a.DisplayName); n != "" {
		return n
	}
	return "unknown"
}

// AuthorName returns the name captured on authored entries.
func (a Actor) AuthorName() string {
	if n := strings.TrimSpace(a.DisplayName); n != "" {
		return n
	}
	if k := strings.TrimSpace(a.Key); k != "" {
		return k
	}
	return "unknown"
}

type actorCtxKey struct{}

// WithActor stores the request actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(Actor)
	return a, ok
}
