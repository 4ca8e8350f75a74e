// Package relationship implements unfriend, block and unblock. Unfriend and
// block run as an ordered list of steps that stage writes into a single
// transaction; nothing is written unless every step succeeds.
package relationship

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/infrastructure/metrics"
)

// Store is the persistence surface of the cascade. Reads hit the store
// directly; writes only happen through the Tx passed to WithTx.
type Store interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetItem(ctx context.Context, itemID string) (*domain.Item, error)
	FriendRequestsBetween(ctx context.Context, a, b string) ([]domain.FriendRequest, error)
	InvitationsBetween(ctx context.Context, a, b string) ([]domain.EventInvitation, error)
	EventsByCreator(ctx context.Context, creatorID string) ([]domain.Event, error)
	ActiveReservationsBy(ctx context.Context, reserverID string) ([]domain.Reservation, error)
	ActiveReservationsOn(ctx context.Context, itemID string) ([]domain.Reservation, error)
	NotificationsBetween(ctx context.Context, a, b string) ([]domain.Notification, error)
	RemoveBlocked(ctx context.Context, userID, blockedID string) error

	// WithTx runs fn and commits what it staged. If fn fails nothing is
	// committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx stages writes.
type Tx interface {
	RemoveFriend(userID, friendID string)
	AddBlocked(userID, blockedID string)
	RejectFriendRequest(requestID string)
	DeleteFriendRequest(requestID string)
	DeleteInvitation(eventID, inviteeID string)
	RemoveInvitee(eventID, userID string)
	CancelReservation(itemID, reserverID string)
	ClearItemReservationState(itemID string)
	DeleteNotification(notificationID string)
}

// Outcome counts what a cascade changed.
type Outcome struct {
	FriendRequestsClosed  int `json:"friend_requests_closed"`
	InvitationsDeleted    int `json:"invitations_deleted"`
	InviteesRemoved       int `json:"invitees_removed"`
	ReservationsCancelled int `json:"reservations_cancelled"`
	ItemsCleared          int `json:"items_cleared"`
	NotificationsDeleted  int `json:"notifications_deleted"`
}

type Service interface {
	Unfriend(ctx context.Context, a, b string) (*Outcome, error)
	Block(ctx context.Context, a, b string) (*Outcome, error)
	Unblock(ctx context.Context, a, b string) error
	Status(ctx context.Context, a, b string) (domain.RelationshipState, error)
}

type Option func(*service)

func WithLogger(l *slog.Logger) Option { return func(s *service) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.metrics = m } }

type service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, opts ...Option) Service {
	s := &service{store: store, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Unfriend(ctx context.Context, a, b string) (*Outcome, error) {
	if a == "" || b == "" || a == b {
		return nil, fmt.Errorf("unfriend %q/%q: %w", a, b, domain.ErrBadRequest)
	}
	out, err := s.run(ctx, "unfriend", a, b, unfriendSteps)
	s.metrics.Teardown("unfriend", err)
	return out, err
}

func (s *service) Block(ctx context.Context, a, b string) (*Outcome, error) {
	if a == "" || b == "" || a == b {
		return nil, fmt.Errorf("block %q/%q: %w", a, b, domain.ErrBadRequest)
	}
	blocker, err := s.store.GetUser(ctx, a)
	if err != nil {
		return nil, err
	}
	if blocker.HasBlocked(b) {
		return nil, fmt.Errorf("user %s: %w", b, domain.ErrAlreadyBlocked)
	}
	out, err := s.run(ctx, "block", a, b, blockSteps)
	s.metrics.Teardown("block", err)
	return out, err
}

// Unblock only removes b from a's block set.
func (s *service) Unblock(ctx context.Context, a, b string) error {
	if a == "" || b == "" || a == b {
		return fmt.Errorf("unblock %q/%q: %w", a, b, domain.ErrBadRequest)
	}
	return s.store.RemoveBlocked(ctx, a, b)
}

// Status is the relationship of a towards b.
func (s *service) Status(ctx context.Context, a, b string) (domain.RelationshipState, error) {
	ua, err := s.store.GetUser(ctx, a)
	if err != nil {
		return "", err
	}
	ub, err := s.store.GetUser(ctx, b)
	if err != nil {
		return "", err
	}
	if ua.HasBlocked(b) || ub.HasBlocked(a) {
		return domain.RelationshipBlocked, nil
	}
	if ua.IsFriend(b) {
		return domain.RelationshipFriends, nil
	}
	requests, err := s.store.FriendRequestsBetween(ctx, a, b)
	if err != nil {
		return "", err
	}
	for _, r := range requests {
		if r.Status != domain.FriendRequestPending {
			continue
		}
		if r.SenderID == a {
			return domain.RelationshipPendingSent, nil
		}
		return domain.RelationshipPendingReceived, nil
	}
	return domain.RelationshipNone, nil
}

func (s *service) run(ctx context.Context, op, a, b string, steps []step) (*Outcome, error) {
	c := &cascade{a: a, b: b, store: s.store, touched: map[string]map[string]bool{}}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		c.tx = tx
		for _, st := range steps {
			if err := st.run(ctx, c); err != nil {
				return fmt.Errorf("%s step %s: %w", op, st.name, err)
			}
			s.logger.Debug("teardown step staged", "op", op, "step", st.name, "a", a, "b", b)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("teardown aborted", "op", op, "a", a, "b", b, "err", err)
		return nil, err
	}
	s.logger.Info("teardown committed", "op", op, "a", a, "b", b,
		"reservations_cancelled", c.out.ReservationsCancelled, "notifications_deleted", c.out.NotificationsDeleted)
	return &c.out, nil
}
