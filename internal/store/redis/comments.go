package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

// ErrCommentNotFound is returned when updating an unknown comment.
var ErrCommentNotFound = errors.New("native comment not found")

// Comments is a minimal native comment system: one hash per container,
// field = comment id, value = JSON encoded domain.NativeComment.
type Comments struct {
	client *redis.Client
	now    func() time.Time
}

func NewComments(client *redis.Client) *Comments {
	return &Comments{client: client, now: time.Now}
}

// List returns the container's comments ordered by creation time, then id.
func (c *Comments) List(ctx context.Context, containerID string) ([]domain.NativeComment, error) {
	raw, err := c.client.HGetAll(ctx, NativeCommentsKey(containerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list comments on %s: %w", containerID, err)
	}

	out := make([]domain.NativeComment, 0, len(raw))
	for id, data := range raw {
		var nc domain.NativeComment
		if err := json.Unmarshal([]byte(data), &nc); err != nil {
			// Skip comments that couldn't be decoded
			continue
		}
		nc.ID = id
		out = append(out, nc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		a, _ := strconv.ParseInt(out[i].ID, 10, 64)
		b, _ := strconv.ParseInt(out[j].ID, 10, 64)
		return a < b
	})
	return out, nil
}

// Create stores a comment authored by the request actor.
func (c *Comments) Create(ctx context.Context, containerID, markup string) (domain.NativeComment, error) {
	seq, err := c.client.Incr(ctx, KeyNativeCommentSeq).Result()
	if err != nil {
		return domain.NativeComment{}, fmt.Errorf("failed to allocate comment id: %w", err)
	}

	now := domain.Timestamp(c.now())
	nc := domain.NativeComment{
		ID:        strconv.FormatInt(firstNativeCommentID+seq, 10),
		Author:    authorOf(ctx),
		Body:      markup,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.put(ctx, containerID, nc); err != nil {
		return domain.NativeComment{}, err
	}
	return nc, nil
}

// Update replaces the body of an existing comment.
func (c *Comments) Update(ctx context.Context, containerID, commentID, markup string) (domain.NativeComment, error) {
	data, err := c.client.HGet(ctx, NativeCommentsKey(containerID), commentID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NativeComment{}, fmt.Errorf("comment %s on %s: %w", commentID, containerID, ErrCommentNotFound)
		}
		return domain.NativeComment{}, fmt.Errorf("failed to get comment %s: %w", commentID, err)
	}

	var nc domain.NativeComment
	if err := json.Unmarshal(data, &nc); err != nil {
		return domain.NativeComment{}, fmt.Errorf("failed to unmarshal comment %s: %w", commentID, err)
	}
	nc.ID = commentID
	nc.Body = markup
	nc.UpdatedAt = domain.Timestamp(c.now())

	if err := c.put(ctx, containerID, nc); err != nil {
		return domain.NativeComment{}, err
	}
	return nc, nil
}

// Delete removes a comment. Deleting a comment that is already gone succeeds.
func (c *Comments) Delete(ctx context.Context, containerID, commentID string) error {
	if err := c.client.HDel(ctx, NativeCommentsKey(containerID), commentID).Err(); err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", commentID, err)
	}
	return nil
}

func (c *Comments) put(ctx context.Context, containerID string, nc domain.NativeComment) error {
	data, err := json.Marshal(nc)
	if err != nil {
		return fmt.Errorf("failed to marshal comment %s: %w", nc.ID, err)
	}
	if err := c.client.HSet(ctx, NativeCommentsKey(containerID), nc.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save comment %s: %w", nc.ID, err)
	}
	return nil
}

func authorOf(ctx context.Context) string {
	if a, ok := domain.ActorFromContext(ctx); ok {
		return a.AuthorName()
	}
	return "anonymous"
}
