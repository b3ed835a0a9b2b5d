package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/herald/internal/collection"
	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/markup"
	"github.com/MrSnakeDoc/herald/internal/metrics"
)

// Deps are the collaborators of the comment thread service.
type Deps struct {
	Properties domain.PropertyStore
	Native     domain.NativeComments
	Identity   domain.Identity
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Service keeps threaded, resolvable discussions on a container.
//
// Thread metadata and the editor documents live in a container property;
// rendered text lives in the native comment system. Reads join the two.
// Edit, Delete and Resolve are open to every participant.
type Service struct {
	store    *collection.Store[Thread]
	native   domain.NativeComments
	identity domain.Identity
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	log := d.Logger.With(logger.String("service", Kind))
	return &Service{
		store: collection.New(collection.Spec[Thread]{
			Kind:      Kind,
			Key:       PropertyKey,
			ListField: ListField,
			Sanitize:  sanitizeThread,
		}, d.Properties, collection.Options{Logger: d.Logger, Metrics: d.Metrics, Now: d.Now}),
		native:   d.Native,
		identity: d.Identity,
		log:      log,
		metrics:  d.Metrics,
		now:      d.Now,
		newID:    domain.NewUUID,
	}
}

// Fetch returns every thread on containerID with text taken from the
// native comment system.
func (s *Service) Fetch(ctx context.Context, containerID string) (View, error) {
	const op = "comments.Fetch"
	if err := checkContainer(containerID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		blob    collection.Blob[Thread]
		natives []domain.NativeComment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		blob = s.store.Load(gctx, containerID)
		return nil
	})
	g.Go(func() error {
		var err error
		natives, err = s.listNative(gctx, containerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.merge(containerID, blob.Items, natives), nil
}

// AddRootComment opens a new thread with a single comment.
func (s *Service) AddRootComment(ctx context.Context, containerID string, anchor *Anchor, in Input) (View, error) {
	const op = "comments.AddRootComment"
	if err := checkContainer(containerID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	text, err := render(in)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	nc, err := s.native.Create(ctx, containerID, text)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, s.upstream("native.create", err))
	}

	now := domain.Timestamp(s.now())
	author := actor.AuthorName()
	thread := Thread{
		ID:          s.newID(),
		ContainerID: containerID,
		Anchor:      anchor,
		CreatedBy:   author,
		CreatedAt:   now,
		Comments:    []CommentEntry{s.entry(nc, author, in, now)},
	}

	blob, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Thread]) error {
		b.Append(thread)
		return nil
	})
	if err != nil {
		s.orphaned(containerID, nc.ID, err)
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("thread created",
		logger.String("container", containerID),
		logger.String("thread", thread.ID),
		logger.String("native_id", nc.ID))
	return s.view(ctx, containerID, blob.Items)
}

// Reply appends a comment to an existing thread.
func (s *Service) Reply(ctx context.Context, containerID, threadID string, in Input) (View, error) {
	const op = "comments.Reply"
	if err := checkContainer(containerID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.findThread(ctx, containerID, threadID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	text, err := render(in)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	nc, err := s.native.Create(ctx, containerID, text)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, s.upstream("native.create", err))
	}

	entry := s.entry(nc, actor.AuthorName(), in, domain.Timestamp(s.now()))
	blob, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Thread]) error {
		i := b.IndexOf(threadID)
		if i < 0 {
			return threadNotFound(threadID)
		}
		b.Items[i].Comments = append(b.Items[i].Comments, entry)
		return nil
	})
	if err != nil {
		s.orphaned(containerID, nc.ID, err)
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("reply added",
		logger.String("container", containerID),
		logger.String("thread", threadID),
		logger.String("comment", entry.ID))
	return s.view(ctx, containerID, blob.Items)
}

// Edit replaces the document of one comment and its native text.
// Author, creation time and native id are kept.
func (s *Service) Edit(ctx context.Context, containerID, threadID, commentID string, in Input) (View, error) {
	const op = "comments.Edit"
	if err := checkContainer(containerID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	thread, err := s.findThread(ctx, containerID, threadID)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	ci := thread.IndexOf(commentID)
	if ci < 0 {
		return View{}, fmt.Errorf("%s: %w", op, commentNotFound(commentID))
	}
	externalID := thread.Comments[ci].ExternalID

	// The anchor is available as rendering context but does not change the markup.
	text, err := render(in)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.native.Update(ctx, containerID, externalID, text)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, s.upstream("native.update", err))
	}
	updatedAt := updated.UpdatedAt
	if updatedAt == "" {
		updatedAt = domain.Timestamp(s.now())
	}

	blob, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Thread]) error {
		ti := b.IndexOf(threadID)
		if ti < 0 {
			return threadNotFound(threadID)
		}
		t := &b.Items[ti]
		ci := t.IndexOf(commentID)
		if ci < 0 {
			return commentNotFound(commentID)
		}
		t.Comments[ci].Body = normalizeBody(in.Body)
		t.Comments[ci].UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("comment edited",
		logger.String("container", containerID),
		logger.String("thread", threadID),
		logger.String("comment", commentID))
	return s.view(ctx, containerID, blob.Items)
}

// Delete removes one comment. A thread left without comments is removed.
func (s *Service) Delete(ctx context.Context, containerID, threadID, commentID string) (View, error) {
	const op = "comments.Delete"
	if err := checkContainer(containerID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	thread, err := s.findThread(ctx, containerID, threadID)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	ci := thread.IndexOf(commentID)
	if ci < 0 {
		return View{}, fmt.Errorf("%s: %w", op, commentNotFound(commentID))
	}

	if err := s.native.Delete(ctx, containerID, thread.Comments[ci].ExternalID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, s.upstream("native.delete", err))
	}

	threadRemoved := false
	blob, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Thread]) error {
		ti := b.IndexOf(threadID)
		if ti < 0 {
			return nil
		}
		t := &b.Items[ti]
		if ci := t.IndexOf(commentID); ci >= 0 {
			t.Comments = append(t.Comments[:ci:ci], t.Comments[ci+1:]...)
		}
		if len(t.Comments) == 0 {
			b.RemoveAt(ti)
			threadRemoved = true
		}
		return nil
	})
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("comment deleted",
		logger.String("container", containerID),
		logger.String("thread", threadID),
		logger.String("comment", commentID),
		logger.Bool("thread_removed", threadRemoved))
	return s.view(ctx, containerID, blob.Items)
}

// Resolve sets the resolved flag of a thread.
func (s *Service) Resolve(ctx context.Context, containerID, threadID string, resolved bool) (View, error) {
	const op = "comments.Resolve"
	if err := checkContainer(containerID); err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	blob, err := s.store.Mutate(ctx, containerID, func(b *collection.Blob[Thread]) error {
		i := b.IndexOf(threadID)
		if i < 0 {
			return threadNotFound(threadID)
		}
		b.Items[i].Resolved = resolved
		return nil
	})
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("thread resolution changed",
		logger.String("container", containerID),
		logger.String("thread", threadID),
		logger.Bool("resolved", resolved))
	return s.view(ctx, containerID, blob.Items)
}

func (s *Service) findThread(ctx context.Context, containerID, threadID string) (Thread, error) {
	t, err := s.store.Get(ctx, containerID, threadID)
	if errors.Is(err, domain.ErrNotFound) {
		return Thread{}, threadNotFound(threadID)
	}
	return t, err
}

// view lists native comments and merges them with freshly saved threads.
func (s *Service) view(ctx context.Context, containerID string, threads []Thread) (View, error) {
	natives, err := s.listNative(ctx, containerID)
	if err != nil {
		return View{}, err
	}
	return s.merge(containerID, threads, natives), nil
}

func (s *Service) merge(containerID string, threads []Thread, natives []domain.NativeComment) View {
	v, missing := merge(containerID, threads, natives)
	if missing > 0 {
		s.log.Warn("comments missing from native system",
			logger.String("container", containerID),
			logger.Int("missing", missing))
		s.metrics.Unavailable(missing)
	}
	return v
}

func (s *Service) listNative(ctx context.Context, containerID string) ([]domain.NativeComment, error) {
	natives, err := s.native.List(ctx, containerID)
	if err != nil {
		return nil, s.upstream("native.list", err)
	}
	return natives, nil
}

func (s *Service) entry(nc domain.NativeComment, author string, in Input, now string) CommentEntry {
	e := CommentEntry{
		ID:         s.newID(),
		ExternalID: nc.ID,
		Author:     author,
		Body:       normalizeBody(in.Body),
		CreatedAt:  nc.CreatedAt,
		UpdatedAt:  nc.UpdatedAt,
	}
	if e.CreatedAt == "" {
		e.CreatedAt = now
	}
	if e.UpdatedAt == "" {
		e.UpdatedAt = now
	}
	return e
}

func (s *Service) actor(ctx context.Context) (domain.Actor, error) {
	a, err := s.identity.CurrentActor(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.Actor{}, err
		}
		return domain.Actor{}, s.upstream("identity.current_actor", err)
	}
	return a, nil
}

func (s *Service) upstream(op string, err error) error {
	s.log.Error("collaborator call failed", logger.String("op", op), logger.Error(err))
	s.metrics.UpstreamFailure(op)
	return domain.Upstream(op, err)
}

// orphaned logs a native comment whose local metadata could not be saved.
func (s *Service) orphaned(containerID, nativeID string, err error) {
	s.log.Error("native comment created but metadata not saved",
		logger.String("container", containerID),
		logger.String("native_id", nativeID),
		logger.Error(err))
}

func render(in Input) (string, error) {
	text := markup.RenderJSON(in.Body, in.Text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("comment text is empty: %w", domain.ErrInvalidArgument)
	}
	return text, nil
}

func checkContainer(containerID string) error {
	if strings.TrimSpace(containerID) == "" {
		return fmt.Errorf("container id is required: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func threadNotFound(id string) error {
	return fmt.Errorf("thread %q: %w", id, domain.ErrNotFound)
}

func commentNotFound(id string) error {
	return fmt.Errorf("comment %q: %w", id, domain.ErrNotFound)
}
