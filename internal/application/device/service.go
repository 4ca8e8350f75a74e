package device

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-wishlist-api/internal/clock"
	"github.com/go-wishlist-api/internal/domain"
	pkgdevice "github.com/go-wishlist-api/internal/pkg/device"
)

type Service interface {
	List(ctx context.Context, userID string) ([]domain.Device, error)
	Get(ctx context.Context, userID, deviceID string) (*domain.Device, error)
	// Register resolves the installation by UUID, creating it if unknown, and
	// stores the push token when one is given.
	Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error)
	UpdateToken(ctx context.Context, userID, deviceID string, req domain.UpdateDeviceRequest) (*domain.Device, error)
	ClearToken(ctx context.Context, userID, deviceID string) error
	Delete(ctx context.Context, userID, deviceID string) error
}

type deviceStore interface {
	pkgdevice.Store
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
	ClearToken(ctx context.Context, deviceID string) error
	SoftDelete(ctx context.Context, deviceID string) error
}

type Option func(*service)

func WithClock(c clock.Clock) Option { return func(s *service) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *service) { s.logger = l } }

type service struct {
	repo   deviceStore
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(repo deviceStore, opts ...Option) Service {
	s := &service{
		repo:   repo,
		clock:  clock.NewSystem(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, deviceID string) (*domain.Device, error) {
	return s.owned(ctx, userID, deviceID)
}

func (s *service) Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) (*domain.Device, error) {
	d, err := pkgdevice.Resolve(ctx, s.repo, req.UUID, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("resolve device: %w", err)
	}
	if req.Token == nil || *req.Token == "" || (d.Token != nil && *d.Token == *req.Token) {
		return d, nil
	}
	if err := s.repo.Update(ctx, d.DeviceID, map[string]interface{}{"token": *req.Token}); err != nil {
		return nil, err
	}
	s.logger.Info("device registered", "device_id", d.DeviceID, "user_id", userID)
	return s.repo.Get(ctx, d.DeviceID)
}

func (s *service) UpdateToken(ctx context.Context, userID, deviceID string, req domain.UpdateDeviceRequest) (*domain.Device, error) {
	d, err := s.owned(ctx, userID, deviceID)
	if err != nil {
		return nil, err
	}
	if req.Token == nil {
		return d, nil
	}
	if *req.Token == "" {
		return nil, fmt.Errorf("empty token: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, deviceID, map[string]interface{}{"token": *req.Token}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, deviceID)
}

func (s *service) ClearToken(ctx context.Context, userID, deviceID string) error {
	if _, err := s.owned(ctx, userID, deviceID); err != nil {
		return err
	}
	return s.repo.ClearToken(ctx, deviceID)
}

func (s *service) Delete(ctx context.Context, userID, deviceID string) error {
	if _, err := s.owned(ctx, userID, deviceID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, deviceID)
}

func (s *service) owned(ctx context.Context, userID, deviceID string) (*domain.Device, error) {
	d, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, fmt.Errorf("device %s: %w", deviceID, domain.ErrForbidden)
	}
	if !d.Enable {
		return nil, fmt.Errorf("device %s: %w", deviceID, domain.ErrNotFound)
	}
	return d, nil
}
