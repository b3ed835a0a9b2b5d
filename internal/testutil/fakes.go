// Package testutil holds in-memory collaborators shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// Properties is an in-memory domain.PropertyStore.
type Properties struct {
	mu       sync.Mutex
	values   map[string]json.RawMessage
	FailGet  bool
	FailSet  bool
	SetCalls int
}

func NewProperties() *Properties {
	return &Properties{values: map[string]json.RawMessage{}}
}

func propKey(containerID, key string) string { return containerID + "/" + key }

func (p *Properties) Get(_ context.Context, containerID, key string) (json.RawMessage, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailGet {
		return nil, false, ErrInjected
	}
	v, ok := p.values[propKey(containerID, key)]
	return v, ok, nil
}

func (p *Properties) Set(_ context.Context, containerID, key string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSet {
		return ErrInjected
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	p.values[propKey(containerID, key)] = data
	p.SetCalls++
	return nil
}

// Put stores raw JSON as-is, bypassing marshalling.
func (p *Properties) Put(containerID, key, raw string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[propKey(containerID, key)] = json.RawMessage(raw)
}

// Raw returns the stored JSON.
func (p *Properties) Raw(containerID, key string) (json.RawMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[propKey(containerID, key)]
	return v, ok
}

// Native is an in-memory domain.NativeComments.
type Native struct {
	mu         sync.Mutex
	seq        int
	comments   map[string]map[string]domain.NativeComment
	Clock      func() string
	FailList   bool
	FailCreate bool
	FailUpdate bool
	FailDelete bool
}

func NewNative() *Native {
	return &Native{
		comments: map[string]map[string]domain.NativeComment{},
		Clock:    func() string { return "2026-01-01T00:00:00.000Z" },
	}
}

func (n *Native) List(_ context.Context, containerID string) ([]domain.NativeComment, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailList {
		return nil, ErrInjected
	}
	out := make([]domain.NativeComment, 0, len(n.comments[containerID]))
	for _, c := range n.comments[containerID] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out, nil
}

func (n *Native) Create(ctx context.Context, containerID, markup string) (domain.NativeComment, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailCreate {
		return domain.NativeComment{}, ErrInjected
	}
	n.seq++
	author := "anonymous"
	if a, ok := domain.ActorFromContext(ctx); ok {
		author = a.AuthorName()
	}
	now := n.Clock()
	c := domain.NativeComment{
		ID:        strconv.Itoa(10000 + n.seq),
		Author:    author,
		Body:      markup,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.comments[containerID] == nil {
		n.comments[containerID] = map[string]domain.NativeComment{}
	}
	n.comments[containerID][c.ID] = c
	return c, nil
}

func (n *Native) Update(_ context.Context, containerID, commentID, markup string) (domain.NativeComment, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailUpdate {
		return domain.NativeComment{}, ErrInjected
	}
	c, ok := n.comments[containerID][commentID]
	if !ok {
		return domain.NativeComment{}, fmt.Errorf("comment %s: %w", commentID, ErrInjected)
	}
	c.Body = markup
	c.UpdatedAt = n.Clock()
	n.comments[containerID][commentID] = c
	return c, nil
}

func (n *Native) Delete(_ context.Context, containerID, commentID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailDelete {
		return ErrInjected
	}
	delete(n.comments[containerID], commentID)
	return nil
}

// Body returns the stored markup of a native comment.
func (n *Native) Body(containerID, commentID string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.comments[containerID][commentID]
	return c.Body, ok
}

// Count returns the number of native comments on containerID.
func (n *Native) Count(containerID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.comments[containerID])
}

// Identity is a domain.Identity reading the actor from the context.
// Admins lists user keys that are admins on every container.
type Identity struct {
	mu        sync.Mutex
	Admins    map[string]bool
	FailAdmin bool
	Calls     int
}

func NewIdentity(admins ...string) *Identity {
	m := make(map[string]bool, len(admins))
	for _, a := range admins {
		m[a] = true
	}
	return &Identity{Admins: m}
}

func (i *Identity) CurrentActor(ctx context.Context) (domain.Actor, error) {
	a, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	return a, nil
}

func (i *Identity) IsContainerAdmin(ctx context.Context, _ string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Calls++
	if i.FailAdmin {
		return false, ErrInjected
	}
	a, _ := domain.ActorFromContext(ctx)
	return i.Admins[a.Key], nil
}

// SetAdmin grants or revokes admin rights for key.
func (i *Identity) SetAdmin(key string, admin bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Admins[key] = admin
}

// Containers is a static domain.ContainerConfig.
type Containers map[string]string

func (c Containers) ContainerFor(_ context.Context, kind string) (string, bool) {
	id, ok := c[kind]
	return id, ok
}

// As returns ctx carrying an actor with key and display name.
func As(ctx context.Context, key, name string) context.Context {
	return domain.WithActor(ctx, domain.Actor{Key: key, DisplayName: name})
}
