package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/photo-sharing/internal/transport/http/errors"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/middleware"
)

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	photoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in contentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	c, err := h.Comments.Create(r.Context(), middleware.AccountFrom(r.Context()), photoID, in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentFromModel(c))
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	photoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.Comments.List(r.Context(), photoID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := commentsResponse{Items: make([]commentResponse, 0, len(items))}
	for i := range items {
		out.Items = append(out.Items, commentFromModel(&items[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var in contentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	c, err := h.Comments.Update(r.Context(), middleware.AccountFrom(r.Context()), chi.URLParam(r, "id"), in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentFromModel(c))
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.Comments.Delete(r.Context(), middleware.AccountFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
