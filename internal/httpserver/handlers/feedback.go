package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/feedback"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

type feedbackList struct {
	Items []feedback.Item `json:"items"`
}

type Feedback struct {
	d deps.Deps
}

func NewFeedback(d deps.Deps) *Feedback { return &Feedback{d: d} }

// List accepts ?type=BUG|IDEA&status=...&mine=true.
func (h *Feedback) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mine, _ := strconv.ParseBool(q.Get("mine"))

	items, err := h.d.Feedback.List(r.Context(), feedback.Filter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Mine:   mine,
	})
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackList{Items: items})
}

func (h *Feedback) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Feedback.Stats(r.Context()))
}

func (h *Feedback) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.d.Feedback.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Feedback) Create(w http.ResponseWriter, r *http.Request) {
	var req feedback.CreateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	it, err := h.d.Feedback.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Feedback) Update(w http.ResponseWriter, r *http.Request) {
	var req feedback.UpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	it, err := h.d.Feedback.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Feedback) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Feedback.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
