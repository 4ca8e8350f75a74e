package device

import (
	"context"
	"errors"
	"time"

	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/pkg/id"
)

// Store is the slice of the device table Resolve needs.
type Store interface {
	GetByUUID(ctx context.Context, uuid string) (*domain.Device, error)
	Put(ctx context.Context, d *domain.Device) error
}

// Resolve returns the Device registered under deviceUUID, creating it for
// userID when none exists. An installation that changed hands, or was
// disabled, is rebound to userID and re-enabled with its token dropped.
func Resolve(ctx context.Context, repo Store, deviceUUID *string, userID string, now time.Time) (*domain.Device, error) {
	if deviceUUID != nil && *deviceUUID != "" {
		d, err := repo.GetByUUID(ctx, *deviceUUID)
		switch {
		case err == nil:
			if d.UserID == userID && d.Enable {
				return d, nil
			}
			d.UserID = userID
			d.Enable = true
			d.Token = nil
			d.UpdatedAt = now
			if err := repo.Put(ctx, d); err != nil {
				return nil, err
			}
			return d, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	devUUID := id.New()
	if deviceUUID != nil && *deviceUUID != "" {
		devUUID = *deviceUUID
	}
	d := &domain.Device{
		DeviceID:  id.New(),
		UUID:      devUUID,
		UserID:    userID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
