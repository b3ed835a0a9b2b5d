package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/votes"
)

type Votes struct {
	d deps.Deps
}

func NewVotes(d deps.Deps) *Votes { return &Votes{d: d} }

func (h *Votes) Fetch(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Votes.Fetch(r.Context(), chi.URLParam(r, "issueKey"), chi.URLParam(r, "voteId"))
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Upsert sets the caller's vote; {"dir": null} removes it.
func (h *Votes) Upsert(w http.ResponseWriter, r *http.Request) {
	var req votes.UpsertRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	res, err := h.d.Votes.Upsert(r.Context(), chi.URLParam(r, "issueKey"), chi.URLParam(r, "voteId"), req)
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
