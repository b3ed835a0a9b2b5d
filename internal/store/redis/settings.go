package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/index"
)

// Settings keeps a copy of the last published settings snapshot so a restart
// with an unreadable settings file can still serve the previous configuration.
type Settings struct {
	client *redis.Client
}

func NewSettings(client *redis.Client) *Settings {
	return &Settings{client: client}
}

// SaveSnapshot stores s, replacing any previous snapshot.
func (st *Settings) SaveSnapshot(ctx context.Context, s index.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings snapshot: %w", err)
	}
	if err := st.client.Set(ctx, KeySettingsSnapshot, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, if any.
func (st *Settings) LoadSnapshot(ctx context.Context) (index.Snapshot, bool, error) {
	data, err := st.client.Get(ctx, KeySettingsSnapshot).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return index.Snapshot{}, false, nil
		}
		return index.Snapshot{}, false, fmt.Errorf("failed to get settings snapshot: %w", err)
	}

	var s index.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return index.Snapshot{}, false, fmt.Errorf("failed to unmarshal settings snapshot: %w", err)
	}
	return s, true, nil
}
