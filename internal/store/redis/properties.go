package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Properties stores whole JSON values per (container, key).
type Properties struct {
	client *redis.Client
}

func NewProperties(client *redis.Client) *Properties {
	return &Properties{client: client}
}

// Get returns the raw JSON stored under key. A missing key is not an error.
func (p *Properties) Get(ctx context.Context, containerID, key string) (json.RawMessage, bool, error) {
	data, err := p.client.Get(ctx, PropertyKey(containerID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get property %s on %s: %w", key, containerID, err)
	}
	return json.RawMessage(data), true, nil
}

// Set replaces the whole value stored under key.
func (p *Properties) Set(ctx context.Context, containerID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal property %s: %w", key, err)
	}
	if err := p.client.Set(ctx, PropertyKey(containerID, key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set property %s on %s: %w", key, containerID, err)
	}
	return nil
}
