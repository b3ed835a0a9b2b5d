package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/herald/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

// registerAPI mounts the collection endpoints. Every /api call needs an
// actor; mutations share one per-actor rate limiter.
func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		api.Use(mw.Actor(d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:        d.RateLimitBurst,
			RefillPerMin: d.RateLimitPerMinute,
			MaxEntries:   10000,
			IdleTTL:      15 * time.Minute,
			TrustProxy:   d.TrustProxy,
		}))

		mountComments(api, handlers.NewComments(d))
		mountChallenges(api, handlers.NewChallenges(d))
		mountFeedback(api, handlers.NewFeedback(d))
		mountVotes(api, handlers.NewVotes(d))
		mountRatings(api, handlers.NewRatings(d))
	})
}

func mountComments(r chi.Router, h *handlers.Comments) {
	r.Route("/comments/issues/{issueKey}", func(r chi.Router) {
		r.Get("/", h.Fetch)
		r.Post("/threads", h.CreateThread)
		r.Post("/threads/{threadId}/reply", h.Reply)
		r.Put("/threads/{threadId}/comments/{commentId}", h.Edit)
		r.Delete("/threads/{threadId}/comments/{commentId}", h.Delete)
		r.Patch("/threads/{threadId}/resolve", h.Resolve)
	})
}

func mountChallenges(r chi.Router, h *handlers.Challenges) {
	r.Route("/challenges", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func mountFeedback(r chi.Router, h *handlers.Feedback) {
	r.Route("/feedback", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func mountVotes(r chi.Router, h *handlers.Votes) {
	r.Get("/vote/issues/{issueKey}/votes/{voteId}", h.Fetch)
	r.Post("/vote/issues/{issueKey}/votes/{voteId}", h.Upsert)
}

func mountRatings(r chi.Router, h *handlers.Ratings) {
	r.Get("/rating/issues/{issueKey}/ratings/{ratingId}", h.Fetch)
	r.Post("/rating/issues/{issueKey}/ratings/{ratingId}", h.Upsert)
}
