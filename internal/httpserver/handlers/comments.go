package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/herald/internal/comments"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
)

type createThreadRequest struct {
	Anchor *comments.Anchor `json:"anchor,omitempty"`
	comments.Input
}

type resolveRequest struct {
	Resolved *bool `json:"resolved"`
}

// Comments serves the comment threads of one issue.
type Comments struct {
	d deps.Deps
}

func NewComments(d deps.Deps) *Comments { return &Comments{d: d} }

func (h *Comments) Fetch(w http.ResponseWriter, r *http.Request) {
	view, err := h.d.Comments.Fetch(r.Context(), chi.URLParam(r, "issueKey"))
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Comments) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	view, err := h.d.Comments.AddRootComment(r.Context(), chi.URLParam(r, "issueKey"), req.Anchor, req.Input)
	h.respond(w, r, http.StatusCreated, view, err)
}

func (h *Comments) Reply(w http.ResponseWriter, r *http.Request) {
	var in comments.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	view, err := h.d.Comments.Reply(r.Context(), chi.URLParam(r, "issueKey"), chi.URLParam(r, "threadId"), in)
	h.respond(w, r, http.StatusCreated, view, err)
}

func (h *Comments) Edit(w http.ResponseWriter, r *http.Request) {
	var in comments.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	view, err := h.d.Comments.Edit(r.Context(),
		chi.URLParam(r, "issueKey"), chi.URLParam(r, "threadId"), chi.URLParam(r, "commentId"), in)
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Comments) Delete(w http.ResponseWriter, r *http.Request) {
	view, err := h.d.Comments.Delete(r.Context(),
		chi.URLParam(r, "issueKey"), chi.URLParam(r, "threadId"), chi.URLParam(r, "commentId"))
	h.respond(w, r, http.StatusOK, view, err)
}

// Resolve sets the resolved flag; a missing flag means resolved.
func (h *Comments) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	resolved := req.Resolved == nil || *req.Resolved
	view, err := h.d.Comments.Resolve(r.Context(), chi.URLParam(r, "issueKey"), chi.URLParam(r, "threadId"), resolved)
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Comments) respond(w http.ResponseWriter, r *http.Request, status int, view comments.View, err error) {
	if err != nil {
		writeError(w, r, h.d.Logger, err)
		return
	}
	writeJSON(w, status, view)
}
