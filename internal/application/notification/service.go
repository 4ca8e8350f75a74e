package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-wishlist-api/internal/clock"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/infrastructure/i18n"
	"github.com/go-wishlist-api/internal/infrastructure/metrics"
	"github.com/go-wishlist-api/internal/infrastructure/sns"
	"github.com/go-wishlist-api/internal/pkg/id"
)

// Real-time event names.
const (
	EventNotification = "notification"
	EventBadgeCount   = "badge_count"
)

// DispatchInput describes one notification. When MessageKey renders, its
// output wins; otherwise Title and Message are used as given.
type DispatchInput struct {
	RecipientID       string
	SenderID          *string
	Type              domain.NotificationType
	Title             string
	Message           string
	MessageKey        string
	Vars              map[string]string
	RelatedID         *string
	RelatedWishlistID *string
}

type Service interface {
	Dispatch(ctx context.Context, in DispatchInput) (*domain.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
	DismissBadge(ctx context.Context, userID string) error
	Counts(ctx context.Context, userID string) (domain.NotificationCounts, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string, since *time.Time) (int, error)
	MarkAsRead(ctx context.Context, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetLastBadgeSeenAt(ctx context.Context, userID string, at time.Time) error
}

type deviceStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	ClearToken(ctx context.Context, deviceID string) error
}

// Presence is the real-time channel.
type Presence interface {
	IsOnline(userID string) bool
	SendToUser(userID, event string, payload interface{}) error
}

type PushSender interface {
	Send(ctx context.Context, endpointARN string, msg sns.PushMessage) error
}

type Renderer interface {
	Render(key string, vars map[string]string, locale string) (i18n.Text, error)
}

// Option configures the service.
type Option func(*service)

func WithClock(c clock.Clock) Option { return func(s *service) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *service) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.metrics = m } }

type service struct {
	store    notificationStore
	users    userStore
	devices  deviceStore
	presence Presence
	push     PushSender
	renderer Renderer

	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store notificationStore, users userStore, devices deviceStore, presence Presence, push PushSender, renderer Renderer, opts ...Option) Service {
	s := &service{
		store:    store,
		users:    users,
		devices:  devices,
		presence: presence,
		push:     push,
		renderer: renderer,
		clock:    clock.NewSystem(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// realtimePayload is what online clients receive.
type realtimePayload struct {
	Notification *domain.Notification `json:"notification"`
	BadgeCount   int                  `json:"badge_count"`
}

// Dispatch persists a notification and delivers it best-effort. Only store
// failures are returned; rendering and delivery problems are logged.
func (s *service) Dispatch(ctx context.Context, in DispatchInput) (*domain.Notification, error) {
	if in.RecipientID == "" || in.Type == "" {
		return nil, fmt.Errorf("recipient and type are required: %w", domain.ErrBadRequest)
	}

	// The profile supplies the locale and the badge baseline. A missing profile
	// falls back to defaults; a failed read would produce a wrong badge count.
	recipient, err := s.users.Get(ctx, in.RecipientID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Debug("recipient profile missing", "user_id", in.RecipientID)
		recipient = &domain.User{UserID: in.RecipientID}
	case err != nil:
		return nil, fmt.Errorf("load recipient %s: %w", in.RecipientID, err)
	}

	title, message := s.render(in, recipient.Language)
	now := s.clock.Now().UTC()
	n := &domain.Notification{
		NotificationID:    id.NewAt(now),
		UserID:            in.RecipientID,
		RelatedUserID:     in.SenderID,
		Type:              in.Type,
		Title:             title,
		Message:           message,
		RelatedID:         in.RelatedID,
		RelatedWishlistID: in.RelatedWishlistID,
		CreatedAt:         now,
	}
	if err := s.store.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	badge, err := s.store.CountUnread(ctx, in.RecipientID, recipient.LastBadgeSeenAt)
	if err != nil {
		s.logger.Warn("badge count failed", "user_id", in.RecipientID, "err", err)
	}

	channel := s.deliver(ctx, n, badge)
	s.metrics.Dispatched(string(n.Type), channel)
	return n, nil
}

func (s *service) render(in DispatchInput, locale string) (string, string) {
	title, message := in.Title, in.Message
	if in.MessageKey != "" && s.renderer != nil {
		txt, err := s.renderer.Render(in.MessageKey, in.Vars, locale)
		if err == nil {
			if txt.Title != "" {
				title = txt.Title
			}
			message = txt.Message
		} else {
			s.logger.Debug("render notification failed", "key", in.MessageKey, "locale", locale, "err", err)
		}
	}
	if message == "" {
		message = title
	}
	return title, message
}

// deliver picks the real-time channel for online users and push otherwise,
// returning the channel that was used.
func (s *service) deliver(ctx context.Context, n *domain.Notification, badge int) string {
	if s.presence.IsOnline(n.UserID) {
		err := s.presence.SendToUser(n.UserID, EventNotification, realtimePayload{Notification: n, BadgeCount: badge})
		if err == nil {
			return metrics.ChannelRealtime
		}
		s.logger.Debug("realtime delivery failed, falling back to push", "user_id", n.UserID, "err", err)
	}
	if s.push == nil {
		return metrics.ChannelNone
	}

	devices, err := s.devices.ListByUser(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("list devices failed", "user_id", n.UserID, "err", err)
		s.metrics.PushFailed("device_lookup")
		return metrics.ChannelNone
	}

	msg := sns.PushMessage{
		Title: n.Title,
		Body:  n.Message,
		Data: map[string]string{
			"type":                string(n.Type),
			"notification_id":     n.NotificationID,
			"related_id":          deref(n.RelatedID),
			"related_wishlist_id": deref(n.RelatedWishlistID),
			"badge_count":         strconv.Itoa(badge),
		},
	}
	sent := 0
	for _, d := range devices {
		if d.Token == nil || *d.Token == "" {
			continue
		}
		err := s.push.Send(ctx, *d.Token, msg)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, sns.ErrInvalidEndpoint):
			s.metrics.PushFailed("invalid_endpoint")
			s.logger.Info("dropping invalid push endpoint", "device_id", d.DeviceID, "user_id", n.UserID)
			if err := s.devices.ClearToken(ctx, d.DeviceID); err != nil {
				s.logger.Warn("clear device token failed", "device_id", d.DeviceID, "err", err)
			}
		default:
			s.metrics.PushFailed("error")
			s.logger.Warn("push delivery failed", "device_id", d.DeviceID, "user_id", n.UserID, "err", err)
		}
	}
	if sent == 0 {
		return metrics.ChannelNone
	}
	return metrics.ChannelPush
}

func (s *service) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return s.store.ListByUser(ctx, userID, limit)
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.store.ListUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.store.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.IsRead = true
	s.publishCounts(ctx, userID)
	return n, nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllAsRead(ctx, userID)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.publishCounts(ctx, userID)
	}
	return n, nil
}

func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, notificationID); err != nil {
		return err
	}
	if !n.IsRead {
		s.publishCounts(ctx, userID)
	}
	return nil
}

// DismissBadge resets the badge: only notifications created from now on
// count towards it.
func (s *service) DismissBadge(ctx context.Context, userID string) error {
	if err := s.users.SetLastBadgeSeenAt(ctx, userID, s.clock.Now().UTC()); err != nil {
		return err
	}
	s.publishCounts(ctx, userID)
	return nil
}

func (s *service) Counts(ctx context.Context, userID string) (domain.NotificationCounts, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.NotificationCounts{}, err
	}
	unread, err := s.store.CountUnread(ctx, userID, nil)
	if err != nil {
		return domain.NotificationCounts{}, err
	}
	badge := unread
	if u.LastBadgeSeenAt != nil {
		if badge, err = s.store.CountUnread(ctx, userID, u.LastBadgeSeenAt); err != nil {
			return domain.NotificationCounts{}, err
		}
	}
	return domain.NotificationCounts{Unread: unread, Badge: badge}, nil
}

func (s *service) owned(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrForbidden)
	}
	return n, nil
}

// publishCounts pushes fresh counts to an online user so every open client
// reflects the change.
func (s *service) publishCounts(ctx context.Context, userID string) {
	if !s.presence.IsOnline(userID) {
		return
	}
	counts, err := s.Counts(ctx, userID)
	if err != nil {
		s.logger.Warn("count notifications failed", "user_id", userID, "err", err)
		return
	}
	if err := s.presence.SendToUser(userID, EventBadgeCount, counts); err != nil {
		s.logger.Debug("publish badge count failed", "user_id", userID, "err", err)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
