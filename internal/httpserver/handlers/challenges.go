package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/challenges"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

type challengeList struct {
	Challenges []challenges.Challenge `json:"challenges"`
}

type Challenges struct {
	d deps.Deps
}

func NewChallenges(d deps.Deps) *Challenges { return &Challenges{d: d} }

func (h *Challenges) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, challengeList{Challenges: h.d.Challenges.List(r.Context())})
}

func (h *Challenges) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.d.Challenges.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Challenges) Create(w http.ResponseWriter, r *http.Request) {
	var req challenges.CreateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	c, err := h.d.Challenges.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Challenges) Update(w http.ResponseWriter, r *http.Request) {
	var req challenges.UpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	c, err := h.d.Challenges.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Challenges) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Challenges.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
