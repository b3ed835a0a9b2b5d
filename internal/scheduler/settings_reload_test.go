package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/herald/internal/index"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/sources/settings"
)

type memoryStore struct {
	mu      sync.Mutex
	snap    *index.Snapshot
	saves   int
	failGet bool
}

func (m *memoryStore) SaveSnapshot(_ context.Context, s index.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &s
	m.saves++
	return nil
}

func (m *memoryStore) LoadSnapshot(context.Context) (index.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return index.Snapshot{}, false, errors.New("unavailable")
	}
	if m.snap == nil {
		return index.Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
}

func container(idx *index.Containers, kind string) string {
	id, _ := idx.ContainerFor(context.Background(), kind)
	return id
}

func TestReloadPublishesAndSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "containers:\n  challenges: HUB-1\nadmins: [alice]\n")

	idx := index.NewContainers()
	store := &memoryStore{}
	sr := NewSettingsReloader(settings.NewLoader(path), settings.Defaults{FeedbackContainer: "FB-1"},
		store, idx, nil, logger.Nop(), time.Hour, nil)

	if err := sr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := container(idx, "challenges"); got != "HUB-1" {
		t.Errorf("challenges container = %q", got)
	}
	if got := container(idx, "feedback"); got != "FB-1" {
		t.Errorf("feedback container = %q", got)
	}
	if !idx.IsAdmin("HUB-1", "alice") {
		t.Error("alice should be admin")
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
}

func TestReloadFailureKeepsCurrentSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "containers:\n  challenges: HUB-1\n")

	idx := index.NewContainers()
	sr := NewSettingsReloader(settings.NewLoader(path), settings.Defaults{}, nil, idx, nil, logger.Nop(), time.Hour, nil)
	if err := sr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	writeSettings(t, path, "containers: [broken")
	if err := sr.Reload(context.Background()); err == nil {
		t.Fatal("Reload() should fail on invalid yaml")
	}
	if got := container(idx, "challenges"); got != "HUB-1" {
		t.Errorf("challenges container = %q, want the previous value", got)
	}
}

func TestStartRestoresSavedSnapshot(t *testing.T) {
	idx := index.NewContainers()
	store := &memoryStore{snap: &index.Snapshot{Containers: map[string]string{"feedback": "FB-OLD"}}}
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	sr := NewSettingsReloader(settings.NewLoader(missing), settings.Defaults{}, store, idx, nil, logger.Nop(), time.Hour, nil)
	if err := sr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sr.Stop()

	if got := container(idx, "feedback"); got != "FB-OLD" {
		t.Errorf("feedback container = %q, want FB-OLD", got)
	}
}

func TestStartFailsWithoutFallback(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	store := &memoryStore{failGet: true}

	sr := NewSettingsReloader(settings.NewLoader(missing), settings.Defaults{}, store, index.NewContainers(), nil, logger.Nop(), time.Hour, nil)
	if err := sr.Start(context.Background()); err == nil {
		sr.Stop()
		t.Fatal("Start() should fail when neither file nor snapshot is available")
	}
}

func TestManualTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "containers:\n  challenges: HUB-1\n")

	idx := index.NewContainers()
	trigger := make(chan struct{}, 1)
	sr := NewSettingsReloader(settings.NewLoader(path), settings.Defaults{}, nil, idx, nil, logger.Nop(), time.Hour, trigger)
	if err := sr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sr.Stop()

	writeSettings(t, path, "containers:\n  challenges: HUB-2\n")
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for container(idx, "challenges") != "HUB-2" {
		if time.Now().After(deadline) {
			t.Fatal("manual trigger did not reload settings")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sr.Stop()
	sr.Stop()
}
