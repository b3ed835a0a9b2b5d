package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready    bool   `json:"ready"`
	Redis    bool   `json:"redis"`
	Settings bool   `json:"settings"`
	Error    string `json:"error,omitempty"`
}

// Readyz is ready once settings are published and Redis answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{
			Settings: d.Containers != nil && !d.Containers.LastReload().IsZero(),
		}
		if err := pingRedis(r.Context(), d); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Redis = true
		}
		resp.Ready = resp.Redis && resp.Settings

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func pingRedis(ctx context.Context, d deps.Deps) error {
	if d.RedisClient == nil {
		return errRedisMissing
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.RedisClient.Ping(ctx).Err()
}
