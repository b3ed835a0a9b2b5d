package mw

import "context"

type actorSlotKey struct{}

func withActorSlot(ctx context.Context, s *actorSlot) context.Context {
	return context.WithValue(ctx, actorSlotKey{}, s)
}
