package permission

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

// Gate answers author-or-admin questions. Admin status is asked to the
// identity collaborator on every call and never cached.
type Gate struct {
	identity domain.Identity
	log      logger.Logger
}

func NewGate(identity domain.Identity, log logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{identity: identity, log: log}
}

// IsAdmin reports whether the current actor administers containerID.
func (g *Gate) IsAdmin(ctx context.Context, containerID string) (bool, error) {
	ok, err := g.identity.IsContainerAdmin(ctx, containerID)
	if err != nil {
		return false, domain.Upstream("identity.is_admin", err)
	}
	return ok, nil
}

// CanEdit reports whether actor may modify an entry authored by authorKey.
func (g *Gate) CanEdit(ctx context.Context, actor domain.Actor, containerID, authorKey string) (bool, error) {
	if k := strings.TrimSpace(actor.Key); k != "" && k == strings.TrimSpace(authorKey) {
		return true, nil
	}
	return g.IsAdmin(ctx, containerID)
}

// RequireCanEdit is CanEdit returning domain.ErrForbidden on refusal.
// Callers must have checked the entry exists first.
func (g *Gate) RequireCanEdit(ctx context.Context, actor domain.Actor, containerID, authorKey string) error {
	ok, err := g.CanEdit(ctx, actor, containerID, authorKey)
	if err != nil {
		return err
	}
	if !ok {
		g.log.Info("edit refused",
			logger.String("actor", actor.SafeKey()),
			logger.String("container", containerID))
		return fmt.Errorf("actor %q cannot edit entry of %q: %w", actor.SafeKey(), authorKey, domain.ErrForbidden)
	}
	return nil
}
