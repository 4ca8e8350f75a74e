package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-wishlist-api/internal/config"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/transport/http/handler"
	appmiddleware "github.com/go-wishlist-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiters.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on endpoints that fan out into many writes.
	mutationRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	reservationH := handler.NewReservationHandler(deps.Reservations)
	relationshipH := handler.NewRelationshipHandler(deps.Relationships)
	notifH := handler.NewNotificationHandler(deps.Notifications)
	deviceH := handler.NewDeviceHandler(deps.Devices)
	realtimeH := handler.NewRealtimeHandler(deps.Realtime)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Verifier))

			r.Get("/ws", realtimeH.Connect)

			r.With(mutationRL.Limit).Post("/items/{id}/reservation", reservationH.Set)
			r.With(mutationRL.Limit).Post("/items/{id}/reservation/extend", reservationH.Extend)

			r.With(mutationRL.Limit).Delete("/friends/{id}", relationshipH.Unfriend)
			r.With(mutationRL.Limit).Post("/blocks/{id}", relationshipH.Block)
			r.With(mutationRL.Limit).Delete("/blocks/{id}", relationshipH.Unblock)
			r.Get("/relationships/{id}", relationshipH.Status)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread", notifH.ListUnread)
			r.Get("/notifications/counts", notifH.Counts)
			r.Put("/notifications/read-all", notifH.MarkAllAsRead)
			r.Post("/notifications/badge/dismiss", notifH.DismissBadge)
			r.Put("/notifications/{id}", notifH.MarkAsRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Get("/devices", deviceH.List)
			r.Post("/devices", deviceH.Register)
			r.Get("/devices/{id}", deviceH.Get)
			r.Put("/devices/{id}", deviceH.Update)
			r.Delete("/devices/{id}", deviceH.Delete)

			// Admin-only routes
			if deps.Sweeps != nil {
				sweepH := handler.NewSweepHandler(deps.Sweeps)
				r.Group(func(r chi.Router) {
					r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
					r.Post("/admin/sweeps/{pass}", sweepH.Run)
				})
			}
		})
	})

	return r
}
