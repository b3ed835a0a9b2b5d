package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/herald/internal/challenges"
	"github.com/MrSnakeDoc/herald/internal/feedback"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

var errRedisMissing = errors.New("client not initialized")

type componentStatus struct {
	OK         bool     `json:"ok"`
	Container  string   `json:"container,omitempty"`
	LastReload string   `json:"last_reload,omitempty"`
	Admins     []string `json:"admins,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra summarises settings, collections and Redis for operators.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{}

		snap := d.Containers.Snapshot()
		settings := componentStatus{OK: !d.Containers.LastReload().IsZero(), LastReload: "never", Admins: snap.Admins}
		if settings.OK {
			settings.LastReload = d.Containers.LastReload().UTC().Format("2006-01-02 15:04:05")
		}
		components["settings"] = settings

		for _, kind := range []string{challenges.Kind, feedback.Kind} {
			id, ok := snap.Containers[kind]
			c := componentStatus{OK: ok, Container: id}
			if !ok {
				c.Impact = "collection-disabled"
			}
			components[kind] = c
		}

		if err := pingRedis(r.Context(), d); err != nil {
			components["redis"] = componentStatus{Impact: "all-writes-failing", Error: err.Error()}
		} else {
			components["redis"] = componentStatus{OK: true}
		}

		writeJSON(w, http.StatusOK, infraResponse{Mode: mode(components), Components: components})
	}
}

func mode(components map[string]componentStatus) string {
	if !components["redis"].OK || !components["settings"].OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "operational"
}
