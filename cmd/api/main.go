package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-wishlist-api/internal/application/device"
	"github.com/go-wishlist-api/internal/application/notification"
	"github.com/go-wishlist-api/internal/application/relationship"
	"github.com/go-wishlist-api/internal/application/reservation"
	"github.com/go-wishlist-api/internal/application/sweeper"
	"github.com/go-wishlist-api/internal/clock"
	"github.com/go-wishlist-api/internal/config"
	"github.com/go-wishlist-api/internal/infrastructure/dynamo"
	"github.com/go-wishlist-api/internal/infrastructure/i18n"
	jwtinfra "github.com/go-wishlist-api/internal/infrastructure/jwt"
	"github.com/go-wishlist-api/internal/infrastructure/metrics"
	"github.com/go-wishlist-api/internal/infrastructure/sns"
	"github.com/go-wishlist-api/internal/infrastructure/ws"
	transporthttp "github.com/go-wishlist-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("DynamoDB client not available", "err", err)
		os.Exit(1)
	}
	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, logger)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logger.Error("JWT provider not available", "err", err)
		os.Exit(1)
	}

	renderer, err := i18n.NewRenderer()
	if err != nil {
		logger.Error("load message catalogs", "err", err)
		os.Exit(1)
	}

	// SNS push sender (optional; without it offline users only get the stored notification).
	var push notification.PushSender
	if sender, err := sns.NewPushSender(cfg); err == nil {
		push = sender
	} else {
		logger.Warn("SNS push sender not available", "err", err)
	}

	m := metrics.New()
	sysClock := clock.NewSystem()
	hub := ws.NewHub(logger, cfg.AllowedOrigins)

	users := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	devices := dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices)
	notifications := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	items := dynamo.NewItemRepo(dynamoClient, cfg.DynamoTables.Items)
	reservations := dynamo.NewReservationRepo(dynamoClient, cfg.DynamoTables.Reservations)
	friendRequests := dynamo.NewFriendRequestRepo(dynamoClient, cfg.DynamoTables.FriendRequests)
	events := dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events)
	invitations := dynamo.NewInvitationRepo(dynamoClient, cfg.DynamoTables.EventInvitations)

	notifSvc := notification.NewService(notifications, users, devices, hub, push, renderer,
		notification.WithClock(sysClock),
		notification.WithLogger(logger.With("component", "notification")),
		notification.WithMetrics(m),
	)
	ledger := reservation.NewLedger(items, reservations, notifSvc,
		reservation.WithClock(sysClock),
		reservation.WithLogger(logger.With("component", "reservation")),
		reservation.WithTTL(cfg.ReservationTTL),
		reservation.WithMaxExtensions(cfg.MaxReservationExtensions),
	)
	relSvc := relationship.NewService(
		relationship.NewDynamoStore(dynamoClient, relationship.Repos{
			Users:          users,
			Items:          items,
			Reservations:   reservations,
			FriendRequests: friendRequests,
			Events:         events,
			Invitations:    invitations,
			Notifications:  notifications,
		}),
		relationship.WithLogger(logger.With("component", "relationship")),
		relationship.WithMetrics(m),
	)
	deviceSvc := device.NewService(devices,
		device.WithClock(sysClock),
		device.WithLogger(logger.With("component", "device")),
	)

	sched := sweeper.NewScheduler(ledger, events, invitations, notifSvc, cfg.Sweeper,
		sweeper.WithClock(sysClock),
		sweeper.WithLogger(logger.With("component", "sweeper")),
		sweeper.WithMetrics(m),
	)
	if cfg.Sweeper.Enabled {
		sched.Start(ctx)
	}

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		Logger:        logger,
		Verifier:      jwtProvider,
		Reservations:  ledger,
		Relationships: relSvc,
		Notifications: notifSvc,
		Devices:       deviceSvc,
		Realtime:      hub,
		Sweeps:        sched,
		Metrics:       m.Handler(),
	})

	// No WriteTimeout: it would also cut long-lived websocket connections.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("forced shutdown", "err", err)
	}
	logger.Info("server stopped")
}
