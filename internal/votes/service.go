package votes

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

// Service keeps per-user up/down votes in one property per vote id.
// Like the collections, writes replace the whole value without locking.
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

// Fetch returns the caller's vote and the summary for voteID.
func (s *Service) Fetch(ctx context.Context, containerID, voteID string) (Result, error) {
	const op = "votes.Fetch"
	if strings.TrimSpace(containerID) == "" {
		return Result{}, fmt.Errorf("%s: container is required: %w", op, domain.ErrInvalidArgument)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	p := s.load(ctx, containerID, voteID)
	return result(p.Votes, actor.SafeKey()), nil
}

// Upsert sets or, when dir is nil or blank, removes the caller's vote.
func (s *Service) Upsert(ctx context.Context, containerID, voteID string, req UpsertRequest) (Result, error) {
	const op = "votes.Upsert"
	if strings.TrimSpace(containerID) == "" {
		return Result{}, fmt.Errorf("%s: container is required: %w", op, domain.ErrInvalidArgument)
	}
	dir := ""
	if req.Dir != nil && strings.TrimSpace(*req.Dir) != "" {
		d, ok := ParseDirection(*req.Dir)
		if !ok {
			return Result{}, fmt.Errorf("%s: direction %q: %w", op, *req.Dir, domain.ErrInvalidArgument)
		}
		dir = d
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	userKey := actor.SafeKey()

	p := s.load(ctx, containerID, voteID)
	if dir == "" {
		delete(p.Votes, userKey)
	} else {
		p.Votes[userKey] = dir
	}
	p.VoteID = voteID

	if err := s.props.Set(ctx, containerID, PropertyKey(voteID), p); err != nil {
		s.log.Error("property write failed",
			logger.String("container", containerID),
			logger.String("vote", voteID),
			logger.Error(err))
		s.metrics.UpstreamFailure("property.set")
		s.metrics.Mutation(Kind, "failed")
		return Result{}, fmt.Errorf("%s: %w", op, domain.Upstream("property.set", err))
	}
	s.metrics.Mutation(Kind, "ok")

	s.log.Debug("vote saved",
		logger.String("container", containerID),
		logger.String("vote", voteID),
		logger.String("actor", userKey),
		logger.String("dir", dir))
	return result(p.Votes, userKey), nil
}

// load reads the stored votes. It never fails: unreadable values yield no
// votes and entries that are not a known direction are dropped.
func (s *Service) load(ctx context.Context, containerID, voteID string) Property {
	p := Property{VoteID: voteID, Votes: map[string]string{}}
	raw, ok, err := s.props.Get(ctx, containerID, PropertyKey(voteID))
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
		s.log.Warn("stored votes unreadable, treating as empty",
			logger.String("container", containerID),
			logger.Error(err))
		s.metrics.DegradedLoad(Kind, "corrupt")
		return p
	}

	dropped := 0
	for user, v := range stored.Votes {
		var d string
		if strings.TrimSpace(user) == "" || json.Unmarshal(v, &d) != nil {
			dropped++
			continue
		}
		if d, ok = ParseDirection(d); !ok {
			dropped++
			continue
		}
		p.Votes[user] = d
	}
	if dropped > 0 {
		s.log.Warn("dropped malformed votes",
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
