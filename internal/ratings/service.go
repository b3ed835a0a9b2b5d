package ratings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/metrics"
)

type Deps struct {
	Properties domain.PropertyStore
	Identity   domain.Identity
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Service keeps per-user category ratings in one property per rating id.
type Service struct {
	props    domain.PropertyStore
	identity domain.Identity
	log      logger.Logger
	metrics  *metrics.Metrics
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Service{
		props:    d.Properties,
		identity: d.Identity,
		log:      d.Logger.With(logger.String("service", Kind)),
		metrics:  d.Metrics,
	}
}

// Fetch returns the caller's ratings and the per-category summary.
func (s *Service) Fetch(ctx context.Context, containerID, ratingID string) (Result, error) {
	const op = "ratings.Fetch"
	if strings.TrimSpace(containerID) == "" {
		return Result{}, fmt.Errorf("%s: container is required: %w", op, domain.ErrInvalidArgument)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	p := s.load(ctx, containerID, ratingID)
	return result(p.Votes, actor.SafeKey()), nil
}

// Upsert sets the caller's value for a category, or removes it when the
// value is nil. A user left without any category is removed.
func (s *Service) Upsert(ctx context.Context, containerID, ratingID string, req UpsertRequest) (Result, error) {
	const op = "ratings.Upsert"
	if strings.TrimSpace(containerID) == "" {
		return Result{}, fmt.Errorf("%s: container is required: %w", op, domain.ErrInvalidArgument)
	}
	cat := strings.TrimSpace(req.CatID)
	if cat == "" {
		return Result{}, fmt.Errorf("%s: category is required: %w", op, domain.ErrInvalidArgument)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	userKey := actor.SafeKey()

	p := s.load(ctx, containerID, ratingID)
	mine := p.Votes[userKey]
	if mine == nil {
		mine = map[string]int{}
	}
	if req.Value == nil {
		delete(mine, cat)
	} else {
		mine[cat] = *req.Value
	}
	if len(mine) == 0 {
		delete(p.Votes, userKey)
	} else {
		p.Votes[userKey] = mine
	}
	p.RatingID = ratingID

	if err := s.props.Set(ctx, containerID, PropertyKey(ratingID), p); err != nil {
		s.log.Error("property write failed",
			logger.String("container", containerID),
			logger.String("rating", ratingID),
			logger.Error(err))
		s.metrics.UpstreamFailure("property.set")
		s.metrics.Mutation(Kind, "failed")
		return Result{}, fmt.Errorf("%s: %w", op, domain.Upstream("property.set", err))
	}
	s.metrics.Mutation(Kind, "ok")

	s.log.Debug("rating saved",
		logger.String("container", containerID),
		logger.String("rating", ratingID),
		logger.String("actor", userKey),
		logger.String("category", cat))
	return result(p.Votes, userKey), nil
}

// load reads the stored ratings. It never fails: unreadable values yield no
// ratings, non-integer values are dropped and so are users left empty.
func (s *Service) load(ctx context.Context, containerID, ratingID string) Property {
	p := Property{RatingID: ratingID, Votes: map[string]map[string]int{}}
	raw, ok, err := s.props.Get(ctx, containerID, PropertyKey(ratingID))
	if err != nil {
		s.log.Warn("property read failed, treating as empty",
			logger.String("container", containerID),
			logger.Error(err))
		s.metrics.UpstreamFailure("property.get")
		s.metrics.DegradedLoad(Kind, "read_error")
		return p
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p
	}

	var stored struct {
		Votes map[string]json.RawMessage `json:"votes"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn("stored ratings unreadable, treating as empty",
			logger.String("container", containerID),
			logger.Error(err))
		s.metrics.DegradedLoad(Kind, "corrupt")
		return p
	}

	dropped := 0
	for user, rawCats := range stored.Votes {
		var cats map[string]json.RawMessage
		if strings.TrimSpace(user) == "" || json.Unmarshal(rawCats, &cats) != nil {
			dropped++
			continue
		}
		kept := make(map[string]int, len(cats))
		for cat, rv := range cats {
			var v int
			if strings.TrimSpace(cat) == "" || json.Unmarshal(rv, &v) != nil || bytes.Equal(rv, []byte("null")) {
				dropped++
				continue
			}
			kept[cat] = v
		}
		if len(kept) > 0 {
			p.Votes[user] = kept
		}
	}
	if dropped > 0 {
		s.log.Warn("dropped malformed ratings",
			logger.String("container", containerID),
			logger.Int("dropped", dropped))
		s.metrics.Dropped(Kind, dropped)
	}
	return p
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
