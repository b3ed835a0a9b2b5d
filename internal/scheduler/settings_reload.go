package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/herald/internal/index"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/metrics"
	"github.com/MrSnakeDoc/herald/internal/sources/settings"
)

// SnapshotStore persists the last good settings snapshot.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s index.Snapshot) error
	LoadSnapshot(ctx context.Context) (index.Snapshot, bool, error)
}

// SettingsReloader periodically reloads the admin settings into the index.
type SettingsReloader struct {
	loader        *settings.Loader
	defaults      settings.Defaults
	store         SnapshotStore // optional
	index         *index.Containers
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger <-chan struct{}
}

// NewSettingsReloader creates a reloader. store and manualTrigger may be nil.
func NewSettingsReloader(
	loader *settings.Loader,
	defaults settings.Defaults,
	store SnapshotStore,
	idx *index.Containers,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *SettingsReloader {
	return &SettingsReloader{
		loader:        loader,
		defaults:      defaults,
		store:         store,
		index:         idx,
		metrics:       m,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start publishes the settings once, then keeps reloading on the interval
// and on manual triggers until Stop or ctx cancellation.
//
// When the first load fails the previously saved snapshot is restored
// instead; Start only fails if neither is available.
func (sr *SettingsReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		if !sr.restore(ctx) {
			return fmt.Errorf("initial settings load failed: %w", err)
		}
		sr.logger.Warn("settings file unusable, serving last saved snapshot",
			logger.Error(err))
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.reloadLogged(ctx)
			case <-sr.manualTrigger:
				sr.logger.Info("manual settings reload triggered")
				sr.reloadLogged(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the background loop. It is safe to call more than once.
func (sr *SettingsReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
}

// Reload loads the settings file, merges it over the env defaults and
// publishes the result. On failure the current snapshot stays in place.
func (sr *SettingsReloader) Reload(ctx context.Context) error {
	f, err := sr.loader.Load()
	if err != nil {
		sr.metrics.Reload("error")
		return fmt.Errorf("failed to load settings: %w", err)
	}

	snap := settings.Map(f, sr.defaults)
	sr.index.Publish(snap)
	sr.metrics.Reload("ok")

	sr.logger.Info("settings published",
		logger.String("file", sr.loader.Path()),
		logger.Int("containers", len(snap.Containers)),
		logger.Int("admins", len(snap.Admins)))

	if sr.store != nil {
		if err := sr.store.SaveSnapshot(ctx, snap); err != nil {
			// The index is authoritative; the saved copy is only a restart fallback.
			sr.logger.Warn("failed to save settings snapshot", logger.Error(err))
		}
	}
	return nil
}

func (sr *SettingsReloader) reloadLogged(ctx context.Context) {
	if err := sr.Reload(ctx); err != nil {
		sr.logger.Error("failed to reload settings", logger.Error(err))
	}
}

func (sr *SettingsReloader) restore(ctx context.Context) bool {
	if sr.store == nil {
		return false
	}
	snap, ok, err := sr.store.LoadSnapshot(ctx)
	if err != nil {
		sr.logger.Warn("failed to read saved settings snapshot", logger.Error(err))
		return false
	}
	if !ok {
		return false
	}
	sr.index.Publish(snap)
	sr.metrics.Reload("restored")
	return true
}
