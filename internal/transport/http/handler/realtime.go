package handler

import (
	"net/http"
)

// RealtimeServer upgrades a request into the caller's real-time channel.
type RealtimeServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

// RealtimeHandler serves GET /ws.
type RealtimeHandler struct {
	hub RealtimeServer
}

func NewRealtimeHandler(hub RealtimeServer) *RealtimeHandler { return &RealtimeHandler{hub: hub} }

func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	h.hub.ServeWS(w, r, claims.UserID)
}
