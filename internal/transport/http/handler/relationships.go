package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-wishlist-api/internal/application/relationship"
)

// RelationshipHandler handles unfriend, block and unblock.
type RelationshipHandler struct {
	svc relationship.Service
}

func NewRelationshipHandler(svc relationship.Service) *RelationshipHandler {
	return &RelationshipHandler{svc: svc}
}

func (h *RelationshipHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Unfriend(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RelationshipHandler) Block(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Block(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RelationshipHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Unblock(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user unblocked"})
}

func (h *RelationshipHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	state, err := h.svc.Status(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(state)})
}
