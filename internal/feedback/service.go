package feedback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MrSnakeDoc/herald/internal/collection"
	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/metrics"
	"github.com/MrSnakeDoc/herald/internal/permission"
)

type Deps struct {
	Properties domain.PropertyStore
	Identity   domain.Identity
	Containers domain.ContainerConfig
	Gate       *permission.Gate
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Service manages bug reports and ideas stored on the configured container.
type Service struct {
	store      *collection.Store[Item]
	identity   domain.Identity
	containers domain.ContainerConfig
	gate       *permission.Gate
	log        logger.Logger
	now        func() time.Time
	newID      func() string
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Gate == nil {
		d.Gate = permission.NewGate(d.Identity, d.Logger)
	}
	return &Service{
		store: collection.New(collection.Spec[Item]{
			Kind:     Kind,
			Key:      PropertyKey,
			Sanitize: sanitize,
		}, d.Properties, collection.Options{Logger: d.Logger, Metrics: d.Metrics, Now: d.Now}),
		identity:   d.Identity,
		containers: d.Containers,
		gate:       d.Gate,
		log:        d.Logger.With(logger.String("service", Kind)),
		now:        d.Now,
		newID:      func() string { return domain.NewShortID(idPrefix) },
	}
}

// List returns matching items, most recently updated first.
func (s *Service) List(ctx context.Context, f Filter) ([]Item, error) {
	containerID, ok := collection.ContainerFor(ctx, s.containers, Kind)
	if !ok {
		return []Item{}, nil
	}

	wantType, _ := ParseType(f.Type)
	wantStatus, _ := ParseStatus(f.Status)
	var myKey string
	if f.Mine {
		actor, err := s.actor(ctx)
		if err != nil {
			return nil, fmt.Errorf("feedback.List: %w", err)
		}
		myKey = actor.SafeKey()
	}

	items := s.store.List(ctx, containerID, func(it Item) bool {
		if wantType != "" && it.Type != wantType {
			return false
		}
		if wantStatus != "" && it.Status != wantStatus {
			return false
		}
		if f.Mine && it.AuthorKey != myKey {
			return false
		}
		return true
	})

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].UpdatedAt != items[j].UpdatedAt {
			return items[i].UpdatedAt > items[j].UpdatedAt
		}
		return items[i].CreatedAt > items[j].CreatedAt
	})
	return items, nil
}

// Stats counts items by type and status in a single pass.
func (s *Service) Stats(ctx context.Context) Stats {
	containerID, ok := collection.ContainerFor(ctx, s.containers, Kind)
	if !ok {
		return Stats{}
	}
	return computeStats(s.store.List(ctx, containerID, nil))
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	const op = "feedback.Get"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	it, err := s.store.Get(ctx, containerID, strings.TrimSpace(id))
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Item, error) {
	const op = "feedback.Create"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	typ, ok := ParseType(req.Type)
	if !ok {
		return Item{}, fmt.Errorf("%s: type %q must be BUG or IDEA: %w", op, req.Type, domain.ErrInvalidArgument)
	}
	if err := validateSummary(req.Summary); err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateDescription(req.Description); err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}

	now := domain.Timestamp(s.now())
	next := Item{
		ID:                s.newID(),
		Type:              typ,
		Status:            StatusTodo,
		Summary:           strings.TrimSpace(req.Summary),
		Description:       strings.TrimSpace(req.Description),
		AuthorKey:         actor.SafeKey(),
		AuthorDisplayName: strings.TrimSpace(actor.DisplayName),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Item]) error {
		b.Append(next)
		return nil
	}); err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("feedback created",
		logger.String("id", next.ID),
		logger.String("type", string(next.Type)),
		logger.String("author", next.AuthorKey))
	return next, nil
}

// Update edits summary and description for the author or an admin.
// Status changes are admin-only.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Item, error) {
	const op = "feedback.Update"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}
	if req.Summary != nil && strings.TrimSpace(*req.Summary) != "" {
		if err := validateSummary(*req.Summary); err != nil {
			return Item{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return Item{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}

	id = strings.TrimSpace(id)
	var updated Item
	_, err = s.store.Mutate(ctx, containerID, func(b *collection.Blob[Item]) error {
		i := b.IndexOf(id)
		if i < 0 {
			return notFound(id)
		}
		cur := b.Items[i]
		if err := s.gate.RequireCanEdit(ctx, actor, containerID, cur.AuthorKey); err != nil {
			return err
		}
		if req.Status != nil {
			admin, err := s.gate.IsAdmin(ctx, containerID)
			if err != nil {
				return err
			}
			if !admin {
				return fmt.Errorf("only admins may change status: %w", domain.ErrForbidden)
			}
			if raw := strings.TrimSpace(*req.Status); raw != "" {
				st, ok := ParseStatus(raw)
				if !ok {
					return fmt.Errorf("status %q: %w", raw, domain.ErrInvalidArgument)
				}
				cur.Status = st
			}
		}

		if req.Summary != nil && strings.TrimSpace(*req.Summary) != "" {
			cur.Summary = strings.TrimSpace(*req.Summary)
		}
		if req.Description != nil {
			cur.Description = strings.TrimSpace(*req.Description)
		}
		cur.UpdatedAt = domain.Timestamp(s.now())

		b.Items[i] = cur
		updated = cur
		return nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("feedback updated",
		logger.String("id", id),
		logger.String("status", string(updated.Status)),
		logger.String("actor", actor.SafeKey()))
	return updated, nil
}

// Delete removes an item for the author or an admin.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "feedback.Delete"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	id = strings.TrimSpace(id)
	_, err = s.store.Mutate(ctx, containerID, func(b *collection.Blob[Item]) error {
		i := b.IndexOf(id)
		if i < 0 {
			return notFound(id)
		}
		if err := s.gate.RequireCanEdit(ctx, actor, containerID, b.Items[i].AuthorKey); err != nil {
			return err
		}
		b.RemoveAt(i)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("feedback deleted",
		logger.String("id", id),
		logger.String("actor", actor.SafeKey()))
	return nil
}

func (s *Service) actor(ctx context.Context) (domain.Actor, error) {
	a, err := s.identity.CurrentActor(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.Actor{}, err
		}
		return domain.Actor{}, domain.Upstream("identity.current_actor", err)
	}
	return a, nil
}

func validateSummary(raw string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(raw))
	if n < minSummaryLen || n > maxSummaryLen {
		return fmt.Errorf("summary must be %d to %d characters: %w", minSummaryLen, maxSummaryLen, domain.ErrInvalidArgument)
	}
	return nil
}

func validateDescription(raw string) error {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrInvalidArgument)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("feedback %q: %w", id, domain.ErrNotFound)
}
