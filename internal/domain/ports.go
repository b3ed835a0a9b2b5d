package domain

import (
	"context"
	"encoding/json"
)

// PropertyStore is the whole-value key/blob slot attached to a container.
// Set always replaces the stored value.
type PropertyStore interface {
	Get(ctx context.Context, containerID, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, containerID, key string, value any) error
}

// NativeComment is a comment as held by the external comment system.
type NativeComment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created"`
	UpdatedAt string `json:"updated"`
}

// NativeComments is the external comment feature used as durable text store.
type NativeComments interface {
	List(ctx context.Context, containerID string) ([]NativeComment, error)
	Create(ctx context.Context, containerID, markup string) (NativeComment, error)
	Update(ctx context.Context, containerID, commentID, markup string) (NativeComment, error)
	Delete(ctx context.Context, containerID, commentID string) error
}

// Identity resolves the current actor and its admin status on a container.
// IsContainerAdmin must reflect the current state on every call.
type Identity interface {
	CurrentActor(ctx context.Context) (Actor, error)
	IsContainerAdmin(ctx context.Context, containerID string) (bool, error)
}

// ContainerConfig maps a collection kind to the container that stores it.
type ContainerConfig interface {
	ContainerFor(ctx context.Context, kind string) (string, bool)
}
