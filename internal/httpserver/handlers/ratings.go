package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/ratings"
)

type Ratings struct {
	d deps.Deps
}

func NewRatings(d deps.Deps) *Ratings { return &Ratings{d: d} }

func (h *Ratings) Fetch(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Ratings.Fetch(r.Context(), chi.URLParam(r, "issueKey"), chi.URLParam(r, "ratingId"))
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Upsert sets one category for the caller; a null value removes it.
func (h *Ratings) Upsert(w http.ResponseWriter, r *http.Request) {
	var req ratings.UpsertRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	res, err := h.d.Ratings.Upsert(r.Context(), chi.URLParam(r, "issueKey"), chi.URLParam(r, "ratingId"), req)
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
