// Package identity answers who the current actor is and whether they
// administer a container.
package identity

import (
	"context"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

// AdminLookup reports admin membership for a user key.
type AdminLookup interface {
	IsAdmin(containerID, key string) bool
}

// Resolver reads the actor placed on the request context by the HTTP layer
// and checks admin rights against the published settings.
type Resolver struct {
	admins AdminLookup
}

func NewResolver(admins AdminLookup) *Resolver {
	return &Resolver{admins: admins}
}

func (r *Resolver) CurrentActor(ctx context.Context) (domain.Actor, error) {
	a, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	return a, nil
}

func (r *Resolver) IsContainerAdmin(ctx context.Context, containerID string) (bool, error) {
	a, err := r.CurrentActor(ctx)
	if err != nil {
		return false, err
	}
	return r.admins.IsAdmin(containerID, a.Key), nil
}
