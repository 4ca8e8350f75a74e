package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-wishlist-api/internal/application/notification"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) Dispatch(ctx context.Context, in notification.DispatchInput) (*domain.Notification, error) {
	args := m.Called(ctx, in)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}

func (m *mockNotificationSvc) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Error(1)
}

func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationSvc) Delete(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *mockNotificationSvc) DismissBadge(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockNotificationSvc) Counts(ctx context.Context, userID string) (domain.NotificationCounts, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.NotificationCounts), args.Error(1)
}

func TestNotificationList_LimitHandling(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, "u1", defaultNotificationLimit).Return(nil, nil)
	svc.On("List", mock.Anything, "u1", maxNotificationLimit).Return([]domain.Notification{{NotificationID: "n1"}}, nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, h.List, rr, bearerReq(t, p, http.MethodGet, "/v1/notifications", "u1", "user", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = httptest.NewRecorder()
	serveAuthed(p, h.List, rr, bearerReq(t, p, http.MethodGet, "/v1/notifications?limit=5000", "u1", "user", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var ns []domain.Notification
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ns))
	assert.Len(t, ns, 1)

	rr = httptest.NewRecorder()
	serveAuthed(p, h.List, rr, bearerReq(t, p, http.MethodGet, "/v1/notifications?limit=abc", "u1", "user", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertExpectations(t)
}

func TestNotificationCounts(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("Counts", mock.Anything, "u1").Return(domain.NotificationCounts{Unread: 4, Badge: 1}, nil)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, h.Counts, rr, bearerReq(t, p, http.MethodGet, "/v1/notifications/counts", "u1", "user", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"unread_count":4,"badge_count":1}`, rr.Body.String())
}

func TestNotificationMarkAsRead_NotOwner(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkAsRead", mock.Anything, "n1", "u1").Return(nil, domain.ErrForbidden)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	r := withChiID(bearerReq(t, p, http.MethodPut, "/v1/notifications/n1", "u1", "user", nil), "n1")
	serveAuthed(p, h.MarkAsRead, rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertExpectations(t)
}

func TestNotificationBulkAndBadge(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkAllAsRead", mock.Anything, "u1").Return(3, nil)
	svc.On("DismissBadge", mock.Anything, "u1").Return(nil)
	svc.On("Delete", mock.Anything, "n9", "u1").Return(domain.ErrNotFound)
	h := NewNotificationHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, h.MarkAllAsRead, rr, bearerReq(t, p, http.MethodPut, "/v1/notifications/read-all", "u1", "user", nil))
	assert.JSONEq(t, `{"updated":3}`, rr.Body.String())

	rr = httptest.NewRecorder()
	serveAuthed(p, h.DismissBadge, rr, bearerReq(t, p, http.MethodPost, "/v1/notifications/badge/dismiss", "u1", "user", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	serveAuthed(p, h.Delete, rr, withChiID(bearerReq(t, p, http.MethodDelete, "/v1/notifications/n9", "u1", "user", nil), "n9"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertExpectations(t)
}
