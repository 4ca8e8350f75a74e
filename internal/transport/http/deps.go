package http

import (
	"log/slog"
	"net/http"

	"github.com/go-wishlist-api/internal/application/device"
	"github.com/go-wishlist-api/internal/application/notification"
	"github.com/go-wishlist-api/internal/application/relationship"
	"github.com/go-wishlist-api/internal/application/reservation"
	"github.com/go-wishlist-api/internal/transport/http/handler"
	appmiddleware "github.com/go-wishlist-api/internal/transport/http/middleware"
)

// Deps holds everything the router serves. Metrics and Sweeps are optional.
type Deps struct {
	Logger        *slog.Logger
	Verifier      appmiddleware.Verifier
	Reservations  reservation.Ledger
	Relationships relationship.Service
	Notifications notification.Service
	Devices       device.Service
	Realtime      handler.RealtimeServer
	Sweeps        handler.SweepRunner
	Metrics       http.Handler
}
