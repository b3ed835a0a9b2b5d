package challenges

import (
	"context"
	"errors"
	"fmt"
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

// Service manages the challenge list stored on the configured container.
type Service struct {
	store      *collection.Store[Challenge]
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
		store: collection.New(collection.Spec[Challenge]{
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

// List returns all challenges in stored order, or none when no container
// is configured.
func (s *Service) List(ctx context.Context) []Challenge {
	containerID, ok := collection.ContainerFor(ctx, s.containers, Kind)
	if !ok {
		return []Challenge{}
	}
	return s.store.List(ctx, containerID, nil)
}

func (s *Service) Get(ctx context.Context, id string) (Challenge, error) {
	const op = "challenges.Get"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}
	c, err := s.store.Get(ctx, containerID, strings.TrimSpace(id))
	if err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Challenge, error) {
	const op = "challenges.Create"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateCreate(req); err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}

	now := domain.Timestamp(s.now())
	next := Challenge{
		ID:                s.newID(),
		Label:             strings.TrimSpace(req.Label),
		Deadline:          strings.TrimSpace(req.Deadline),
		Description:       strings.TrimSpace(req.Description),
		AuthorKey:         actor.SafeKey(),
		AuthorDisplayName: strings.TrimSpace(actor.DisplayName),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Challenge]) error {
		b.Append(next)
		return nil
	}); err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("challenge created",
		logger.String("id", next.ID),
		logger.String("author", next.AuthorKey))
	return next, nil
}

// Update changes the editable fields. Only the author or an admin may update.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Challenge, error) {
	const op = "challenges.Update"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateUpdate(req); err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}

	id = strings.TrimSpace(id)
	var updated Challenge
	_, err = s.store.Mutate(ctx, containerID, func(b *collection.Blob[Challenge]) error {
		i := b.IndexOf(id)
		if i < 0 {
			return notFound(id)
		}
		cur := b.Items[i]
		if err := s.gate.RequireCanEdit(ctx, actor, containerID, cur.AuthorKey); err != nil {
			return err
		}

		if req.Label != nil && strings.TrimSpace(*req.Label) != "" {
			cur.Label = strings.TrimSpace(*req.Label)
		}
		if req.Deadline != nil {
			cur.Deadline = strings.TrimSpace(*req.Deadline)
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
		return Challenge{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("challenge updated",
		logger.String("id", id),
		logger.String("actor", actor.SafeKey()))
	return updated, nil
}

// Delete removes a challenge. Only the author or an admin may delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "challenges.Delete"
	containerID, err := collection.RequireContainer(ctx, s.containers, Kind)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	id = strings.TrimSpace(id)
	_, err = s.store.Mutate(ctx, containerID, func(b *collection.Blob[Challenge]) error {
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

	s.log.Info("challenge deleted",
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

func validateCreate(req CreateRequest) error {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return fmt.Errorf("label is required: %w", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(label) > maxLabelLen {
		return fmt.Errorf("label exceeds %d characters: %w", maxLabelLen, domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Description)) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrInvalidArgument)
	}
	return nil
}

func validateUpdate(req UpdateRequest) error {
	if req.Label != nil && utf8.RuneCountInString(strings.TrimSpace(*req.Label)) > maxLabelLen {
		return fmt.Errorf("label exceeds %d characters: %w", maxLabelLen, domain.ErrInvalidArgument)
	}
	if req.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*req.Description)) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", maxDescriptionLen, domain.ErrInvalidArgument)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("challenge %q: %w", id, domain.ErrNotFound)
}
