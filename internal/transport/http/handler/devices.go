package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-wishlist-api/internal/application/device"
	"github.com/go-wishlist-api/internal/domain"
)

// DeviceHandler handles device endpoints.
type DeviceHandler struct {
	svc device.Service
}

func NewDeviceHandler(svc device.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

type registerDeviceRequest struct {
	UUID  *string `json:"uuid" validate:"omitempty,min=1,max=128"`
	Token *string `json:"token" validate:"omitempty,min=1,max=2048"`
}

type updateDeviceRequest struct {
	Token *string `json:"token" validate:"required,min=1,max=2048"`
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	devices, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req registerDeviceRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.svc.Register(r.Context(), claims.UserID, domain.RegisterDeviceRequest{UUID: req.UUID, Token: req.Token})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req updateDeviceRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.svc.UpdateToken(r.Context(), claims.UserID, chi.URLParam(r, "id"), domain.UpdateDeviceRequest{Token: req.Token})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "device deleted"})
}
