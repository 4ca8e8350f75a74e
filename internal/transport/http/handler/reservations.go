package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-wishlist-api/internal/application/reservation"
	"github.com/go-wishlist-api/internal/domain"
)

// ReservationHandler exposes the reservation ledger.
type ReservationHandler struct {
	ledger reservation.Ledger
}

func NewReservationHandler(ledger reservation.Ledger) *ReservationHandler {
	return &ReservationHandler{ledger: ledger}
}

type setReservationRequest struct {
	Quantity *int   `json:"quantity" validate:"omitnil,min=1"`
	Action   string `json:"action" validate:"omitempty,oneof=reserve cancel toggle"`
}

type reservationResponse struct {
	Action      string              `json:"action"`
	Changed     bool                `json:"changed"`
	Reservation *domain.Reservation `json:"reservation"`
}

// Set reserves, cancels or toggles the caller's reservation on an item.
func (h *ReservationHandler) Set(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req setReservationRequest
	if !decode(w, r, &req) {
		return
	}
	decision, err := reservation.ParseDecision(req.Action)
	if err != nil {
		httpError(w, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	res, err := h.ledger.SetOrToggle(r.Context(), reservation.SetInput{
		ItemID:     chi.URLParam(r, "id"),
		ReserverID: claims.UserID,
		Quantity:   qty,
		Decision:   decision,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{
		Action:      res.Intent.String(),
		Changed:     res.Changed,
		Reservation: res.Reservation,
	})
}

// Extend pushes the item's expiry checkpoint forward.
func (h *ReservationHandler) Extend(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	item, err := h.ledger.Extend(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
