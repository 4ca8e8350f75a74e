package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-wishlist-api/internal/clock"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/infrastructure/i18n"
	"github.com/go-wishlist-api/internal/infrastructure/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockStore) Get(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockStore) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockStore) CountUnread(ctx context.Context, userID string, since *time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) MarkAsRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUsers) SetLastBadgeSeenAt(ctx context.Context, userID string, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

type mockDevices struct{ mock.Mock }

func (m *mockDevices) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Device), args.Error(1)
}
func (m *mockDevices) ClearToken(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

type mockPresence struct{ mock.Mock }

func (m *mockPresence) IsOnline(userID string) bool { return m.Called(userID).Bool(0) }
func (m *mockPresence) SendToUser(userID, event string, payload interface{}) error {
	return m.Called(userID, event, payload).Error(0)
}

type mockPush struct{ mock.Mock }

func (m *mockPush) Send(ctx context.Context, arn string, msg sns.PushMessage) error {
	return m.Called(ctx, arn, msg).Error(0)
}

type stubRenderer struct {
	text i18n.Text
	err  error
}

func (r stubRenderer) Render(string, map[string]string, string) (i18n.Text, error) {
	return r.text, r.err
}

// --- helpers ---

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *mockStore
	users    *mockUsers
	devices  *mockDevices
	presence *mockPresence
	push     *mockPush
	svc      Service
}

func newFixture(r Renderer) *fixture {
	f := &fixture{
		store:    &mockStore{},
		users:    &mockUsers{},
		devices:  &mockDevices{},
		presence: &mockPresence{},
		push:     &mockPush{},
	}
	f.svc = NewService(f.store, f.users, f.devices, f.presence, f.push, r, WithClock(clock.NewFixed(now)))
	return f
}

func strPtr(s string) *string { return &s }

// --- Dispatch ---

func TestDispatch_OnlineUsesRealtime(t *testing.T) {
	f := newFixture(stubRenderer{text: i18n.Text{Title: "Item reserved", Message: "Someone reserved Lego"}})
	f.users.On("Get", mock.Anything, "owner").Return(&domain.User{UserID: "owner", Language: "en"}, nil)
	f.store.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)
	f.store.On("CountUnread", mock.Anything, "owner", (*time.Time)(nil)).Return(3, nil)
	f.presence.On("IsOnline", "owner").Return(true)
	f.presence.On("SendToUser", "owner", EventNotification, mock.MatchedBy(func(p realtimePayload) bool {
		return p.BadgeCount == 3 && p.Notification.Message == "Someone reserved Lego"
	})).Return(nil)

	n, err := f.svc.Dispatch(context.Background(), DispatchInput{
		RecipientID: "owner",
		Type:        domain.NotificationItemReserved,
		MessageKey:  "item_reserved",
		Vars:        map[string]string{"item_name": "Lego"},
		RelatedID:   strPtr("item-1"),
	})
	require.NoError(t, err)
	assert.Nil(t, n.RelatedUserID)
	assert.Equal(t, "Item reserved", n.Title)
	assert.Equal(t, now, n.CreatedAt)
	assert.False(t, n.IsRead)
	f.push.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	f.presence.AssertExpectations(t)
}

func TestDispatch_OfflineUsesPushAndDropsInvalidEndpoints(t *testing.T) {
	f := newFixture(nil)
	seen := now.Add(-time.Hour)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", LastBadgeSeenAt: &seen}, nil)
	f.store.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.store.On("CountUnread", mock.Anything, "u1", &seen).Return(1, nil)
	f.presence.On("IsOnline", "u1").Return(false)
	f.devices.On("ListByUser", mock.Anything, "u1").Return([]domain.Device{
		{DeviceID: "d1", Token: strPtr("arn:good")},
		{DeviceID: "d2", Token: strPtr("arn:gone")},
		{DeviceID: "d3"},
	}, nil)
	f.push.On("Send", mock.Anything, "arn:good", mock.MatchedBy(func(m sns.PushMessage) bool {
		return m.Data["badge_count"] == "1" && m.Data["type"] == "reservation_expired" && m.Data["related_id"] == "item-9"
	})).Return(nil)
	f.push.On("Send", mock.Anything, "arn:gone", mock.Anything).Return(sns.ErrInvalidEndpoint)
	f.devices.On("ClearToken", mock.Anything, "d2").Return(nil)

	_, err := f.svc.Dispatch(context.Background(), DispatchInput{
		RecipientID: "u1",
		SenderID:    strPtr("owner"),
		Type:        domain.NotificationReservationExpired,
		Title:       "Reservation expired",
		RelatedID:   strPtr("item-9"),
	})
	require.NoError(t, err)
	f.push.AssertNumberOfCalls(t, "Send", 2)
	f.devices.AssertCalled(t, "ClearToken", mock.Anything, "d2")
}

func TestDispatch_RenderFailureFallsBack(t *testing.T) {
	f := newFixture(stubRenderer{err: i18n.ErrMissingKey})
	f.users.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	var stored *domain.Notification
	f.store.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Notification)
	}).Return(nil)
	f.store.On("CountUnread", mock.Anything, "u1", (*time.Time)(nil)).Return(1, nil)
	f.presence.On("IsOnline", "u1").Return(false)
	f.devices.On("ListByUser", mock.Anything, "u1").Return([]domain.Device{}, nil)

	_, err := f.svc.Dispatch(context.Background(), DispatchInput{
		RecipientID: "u1",
		Type:        domain.NotificationEventReminder,
		Title:       "Upcoming event",
		MessageKey:  "event_reminder",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Upcoming event", stored.Message)
}

func TestDispatch_DeliveryErrorsAreNotReturned(t *testing.T) {
	f := newFixture(nil)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	f.store.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.store.On("CountUnread", mock.Anything, "u1", (*time.Time)(nil)).Return(0, errors.New("throttled"))
	f.presence.On("IsOnline", "u1").Return(false)
	f.devices.On("ListByUser", mock.Anything, "u1").Return([]domain.Device{{DeviceID: "d1", Token: strPtr("arn")}}, nil)
	f.push.On("Send", mock.Anything, "arn", mock.Anything).Return(errors.New("sns down"))

	_, err := f.svc.Dispatch(context.Background(), DispatchInput{RecipientID: "u1", Type: domain.NotificationItemUnreserved, Title: "t"})
	assert.NoError(t, err)
	f.devices.AssertNotCalled(t, "ClearToken", mock.Anything, mock.Anything)
}

func TestDispatch_PersistenceErrorIsReturned(t *testing.T) {
	f := newFixture(nil)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	f.store.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	_, err := f.svc.Dispatch(context.Background(), DispatchInput{RecipientID: "u1", Type: domain.NotificationItemReserved, Title: "t"})
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.Kind(err))
	f.presence.AssertNotCalled(t, "IsOnline", mock.Anything)
}

func TestDispatch_RecipientReadErrorIsReturned(t *testing.T) {
	f := newFixture(nil)
	f.users.On("Get", mock.Anything, "u1").Return(nil, errors.New("throttled"))

	_, err := f.svc.Dispatch(context.Background(), DispatchInput{RecipientID: "u1", Type: domain.NotificationItemReserved, Title: "t"})
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.Kind(err))
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "CountUnread", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_RequiresRecipient(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Dispatch(context.Background(), DispatchInput{Type: domain.NotificationItemReserved})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- recipient operations ---

func TestMarkAsRead_Forbidden(t *testing.T) {
	f := newFixture(nil)
	f.store.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "other"}, nil)

	_, err := f.svc.MarkAsRead(context.Background(), "n1", "u1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.store.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

func TestMarkAsRead_PublishesCounts(t *testing.T) {
	f := newFixture(nil)
	f.store.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1"}, nil)
	f.store.On("MarkAsRead", mock.Anything, "n1").Return(nil)
	f.presence.On("IsOnline", "u1").Return(true)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	f.store.On("CountUnread", mock.Anything, "u1", (*time.Time)(nil)).Return(2, nil)
	f.presence.On("SendToUser", "u1", EventBadgeCount, domain.NotificationCounts{Unread: 2, Badge: 2}).Return(nil)

	n, err := f.svc.MarkAsRead(context.Background(), "n1", "u1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	f.presence.AssertExpectations(t)
}

func TestDismissBadge(t *testing.T) {
	f := newFixture(nil)
	f.users.On("SetLastBadgeSeenAt", mock.Anything, "u1", now).Return(nil)
	f.presence.On("IsOnline", "u1").Return(false)

	require.NoError(t, f.svc.DismissBadge(context.Background(), "u1"))
	f.users.AssertExpectations(t)
}

func TestCounts_BadgeUsesLastSeen(t *testing.T) {
	f := newFixture(nil)
	seen := now.Add(-24 * time.Hour)
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", LastBadgeSeenAt: &seen}, nil)
	f.store.On("CountUnread", mock.Anything, "u1", (*time.Time)(nil)).Return(5, nil)
	f.store.On("CountUnread", mock.Anything, "u1", &seen).Return(2, nil)

	counts, err := f.svc.Counts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationCounts{Unread: 5, Badge: 2}, counts)
}

func TestDelete_ReadNotificationDoesNotPublish(t *testing.T) {
	f := newFixture(nil)
	f.store.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1", IsRead: true}, nil)
	f.store.On("Delete", mock.Anything, "n1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), "n1", "u1"))
	f.presence.AssertNotCalled(t, "IsOnline", mock.Anything)
}

func TestMarkAllAsRead(t *testing.T) {
	f := newFixture(nil)
	f.store.On("MarkAllAsRead", mock.Anything, "u1").Return(0, nil)

	n, err := f.svc.MarkAllAsRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
