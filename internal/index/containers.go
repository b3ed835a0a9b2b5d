package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Snapshot is one published version of the admin settings.
type Snapshot struct {
	Containers      map[string]string   `json:"containers"`      // collection kind -> container id
	Admins          []string            `json:"admins"`          // admins on every container
	ContainerAdmins map[string][]string `json:"containerAdmins"` // container id -> admins
}

// Containers holds the current settings snapshot. Readers always see a
// complete snapshot; Publish swaps it atomically.
type Containers struct {
	mu         sync.RWMutex
	containers map[string]string
	admins     map[string]bool
	perAdmins  map[string]map[string]bool
	lastReload time.Time
	now        func() time.Time
}

// NewContainers creates an empty index. Nothing is configured until Publish.
func NewContainers() *Containers {
	return &Containers{
		containers: map[string]string{},
		admins:     map[string]bool{},
		perAdmins:  map[string]map[string]bool{},
		now:        time.Now,
	}
}

// Publish replaces the whole configuration.
func (c *Containers) Publish(s Snapshot) {
	containers := make(map[string]string, len(s.Containers))
	for kind, id := range s.Containers {
		kind, id = strings.TrimSpace(kind), strings.TrimSpace(id)
		if kind != "" && id != "" {
			containers[kind] = id
		}
	}
	per := make(map[string]map[string]bool, len(s.ContainerAdmins))
	for id, keys := range s.ContainerAdmins {
		if set := keySet(keys); len(set) > 0 {
			per[strings.TrimSpace(id)] = set
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.containers = containers
	c.admins = keySet(s.Admins)
	c.perAdmins = per
	c.lastReload = c.now()
}

// ContainerFor returns the container configured for a collection kind.
func (c *Containers) ContainerFor(_ context.Context, kind string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.containers[kind]
	return id, ok
}

// IsAdmin reports whether key is a global admin or an admin of containerID.
func (c *Containers) IsAdmin(containerID, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.admins[key] {
		return true
	}
	return c.perAdmins[containerID][key]
}

// Snapshot returns a copy of the current configuration.
func (c *Containers) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Containers:      make(map[string]string, len(c.containers)),
		Admins:          setKeys(c.admins),
		ContainerAdmins: make(map[string][]string, len(c.perAdmins)),
	}
	for kind, id := range c.containers {
		s.Containers[kind] = id
	}
	for id, set := range c.perAdmins {
		s.ContainerAdmins[id] = setKeys(set)
	}
	return s
}

// Count returns the number of configured collection kinds.
func (c *Containers) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.containers)
}

// LastReload returns when the current snapshot was published.
func (c *Containers) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastReload
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = true
		}
	}
	return set
}

func setKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
