package reservation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-wishlist-api/internal/application/notification"
	"github.com/go-wishlist-api/internal/clock"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/hashicorp/go-multierror"
)

const (
	defaultTTL           = 14 * 24 * time.Hour
	defaultMaxExtensions = 2
)

// SetInput is a reserve/cancel request from reserverID on itemID.
type SetInput struct {
	ItemID     string
	ReserverID string
	Quantity   int
	Decision   Decision
}

// Result is the outcome of SetOrToggle. Changed is false when the call only
// rewrote the quantity of an already active reservation.
type Result struct {
	Intent      Intent
	Reservation *domain.Reservation
	Changed     bool
}

type Ledger interface {
	SetOrToggle(ctx context.Context, in SetInput) (*Result, error)
	Extend(ctx context.Context, itemID, reserverID string) (*domain.Item, error)
	ExpireDue(ctx context.Context, now time.Time) (Report, error)
	RemindApproaching(ctx context.Context, now time.Time, horizon time.Duration) (Report, error)
}

type itemStore interface {
	Get(ctx context.Context, itemID string) (*domain.Item, error)
	SetCheckpoint(ctx context.Context, itemID string, until time.Time) (bool, error)
	ExtendCheckpoint(ctx context.Context, itemID string, prev, next time.Time, prevCount int) error
	ClearReservationState(ctx context.Context, itemID string) error
	ClaimReminder(ctx context.Context, itemID string, until time.Time) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]domain.Item, error)
	ListApproaching(ctx context.Context, now time.Time, horizon time.Duration) ([]domain.Item, error)
}

type reservationStore interface {
	Find(ctx context.Context, itemID, reserverID string) (*domain.Reservation, error)
	ListActiveByItem(ctx context.Context, itemID string) ([]domain.Reservation, error)
	Upsert(ctx context.Context, itemID, reserverID string, quantity int, now time.Time) (*domain.Reservation, error)
	Cancel(ctx context.Context, itemID, reserverID string, now time.Time) error
}

// Notifier is the part of the notification router the ledger needs.
type Notifier interface {
	Dispatch(ctx context.Context, in notification.DispatchInput) (*domain.Notification, error)
}

type Option func(*ledger)

func WithClock(c clock.Clock) Option { return func(l *ledger) { l.clock = c } }

func WithLogger(lg *slog.Logger) Option { return func(l *ledger) { l.logger = lg } }

// WithTTL sets how long a new or extended checkpoint lasts.
func WithTTL(d time.Duration) Option {
	return func(l *ledger) {
		if d > 0 {
			l.ttl = d
		}
	}
}

func WithMaxExtensions(n int) Option {
	return func(l *ledger) {
		if n >= 0 {
			l.maxExtensions = n
		}
	}
}

type ledger struct {
	items        itemStore
	reservations reservationStore
	notifier     Notifier

	clock         clock.Clock
	logger        *slog.Logger
	ttl           time.Duration
	maxExtensions int
}

func NewLedger(items itemStore, reservations reservationStore, notifier Notifier, opts ...Option) Ledger {
	l := &ledger{
		items:         items,
		reservations:  reservations,
		notifier:      notifier,
		clock:         clock.NewSystem(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		ttl:           defaultTTL,
		maxExtensions: defaultMaxExtensions,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ledger) SetOrToggle(ctx context.Context, in SetInput) (*Result, error) {
	item, err := l.items.Get(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == in.ReserverID {
		return nil, fmt.Errorf("cannot reserve own item: %w", domain.ErrForbidden)
	}
	if item.IsReceived {
		return nil, fmt.Errorf("item %s already received: %w", item.ItemID, domain.ErrInvalidState)
	}

	current, err := l.reservations.Find(ctx, in.ItemID, in.ReserverID)
	if err != nil {
		return nil, err
	}

	intent := in.Decision.Resolve(current.Active())
	if intent == IntentCancel {
		return l.cancel(ctx, item, current)
	}
	return l.reserve(ctx, item, current, in)
}

func (l *ledger) cancel(ctx context.Context, item *domain.Item, current *domain.Reservation) (*Result, error) {
	if !current.Active() {
		return nil, fmt.Errorf("item %s: %w", item.ItemID, domain.ErrNothingToCancel)
	}
	now := l.clock.Now()
	if err := l.reservations.Cancel(ctx, item.ItemID, current.ReserverID, now); err != nil {
		return nil, err
	}
	current.Status = domain.ReservationCancelled
	current.UpdatedAt = now

	if err := l.clearIfUnreserved(ctx, item.ItemID); err != nil {
		return nil, err
	}

	l.notifyOwner(ctx, item, domain.NotificationItemUnreserved)
	return &Result{Intent: IntentCancel, Reservation: current, Changed: true}, nil
}

func (l *ledger) reserve(ctx context.Context, item *domain.Item, current *domain.Reservation, in SetInput) (*Result, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrBadRequest)
	}

	active, err := l.reservations.ListActiveByItem(ctx, item.ItemID)
	if err != nil {
		return nil, err
	}
	others := 0
	for _, r := range active {
		if r.ReserverID != in.ReserverID {
			others += r.Quantity
		}
	}
	available := item.Quantity - others
	if available < 0 {
		available = 0
	}
	if in.Quantity > available {
		return nil, &domain.QuantityExceededError{Requested: in.Quantity, Remaining: available}
	}

	// The read above and the write below are not atomic; a concurrent reserver
	// on the same item can slip in between.
	now := l.clock.Now()
	res, err := l.reservations.Upsert(ctx, item.ItemID, in.ReserverID, in.Quantity, now)
	if err != nil {
		return nil, err
	}

	if item.ReservedUntil == nil {
		if _, err := l.items.SetCheckpoint(ctx, item.ItemID, now.Add(l.ttl)); err != nil {
			return nil, err
		}
	}

	changed := !current.Active()
	if changed {
		l.notifyOwner(ctx, item, domain.NotificationItemReserved)
	}
	return &Result{Intent: IntentReserve, Reservation: res, Changed: changed}, nil
}

// Extend pushes the item's checkpoint forward for an active reserver.
func (l *ledger) Extend(ctx context.Context, itemID, reserverID string) (*domain.Item, error) {
	item, err := l.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	current, err := l.reservations.Find(ctx, itemID, reserverID)
	if err != nil {
		return nil, err
	}
	if !current.Active() {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNoActiveReservation)
	}

	now := l.clock.Now()
	if item.ReservedUntil == nil {
		until := now.Add(l.ttl)
		if _, err := l.items.SetCheckpoint(ctx, itemID, until); err != nil {
			return nil, err
		}
		item.ReservedUntil = &until
		item.ReminderSent = false
		item.ExtensionCount = 0
		return item, nil
	}
	if item.ExtensionCount >= l.maxExtensions {
		return nil, fmt.Errorf("item %s extended %d times: %w", itemID, item.ExtensionCount, domain.ErrExtensionLimit)
	}

	next := item.ReservedUntil.Add(l.ttl)
	if err := l.items.ExtendCheckpoint(ctx, itemID, *item.ReservedUntil, next, item.ExtensionCount); err != nil {
		return nil, err
	}
	item.ReservedUntil = &next
	item.ExtensionCount++
	item.ReminderSent = false
	return item, nil
}

// ExpireDue cancels every active reservation on items whose checkpoint has
// passed, notifies each reserver and clears the item's checkpoint.
func (l *ledger) ExpireDue(ctx context.Context, now time.Time) (Report, error) {
	var rep Report
	items, err := l.items.ListDue(ctx, now)
	if err != nil {
		return rep, fmt.Errorf("list due items: %w", err)
	}
	for i := range items {
		item := &items[i]
		rep.Items++
		if err := l.expireItem(ctx, item, now, &rep); err != nil {
			l.logger.Warn("expire item failed", "item_id", item.ItemID, "err", err)
			rep.fail(item.ItemID, err)
		}
	}
	return rep, nil
}

func (l *ledger) expireItem(ctx context.Context, item *domain.Item, now time.Time, rep *Report) error {
	active, err := l.reservations.ListActiveByItem(ctx, item.ItemID)
	if err != nil {
		return err
	}
	var notifyErrs *multierror.Error
	for _, r := range active {
		err := l.reservations.Cancel(ctx, item.ItemID, r.ReserverID, now)
		if errors.Is(err, domain.ErrNothingToCancel) {
			continue
		}
		if err != nil {
			return fmt.Errorf("cancel reservation of %s: %w", r.ReserverID, err)
		}
		rep.Reservations++

		if err := l.notifyReserver(ctx, item, r.ReserverID, domain.NotificationReservationExpired, nil); err != nil {
			notifyErrs = multierror.Append(notifyErrs, err)
			continue
		}
		rep.Notified++
	}
	if err := l.items.ClearReservationState(ctx, item.ItemID); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return notifyErrs.ErrorOrNil()
}

// RemindApproaching notifies active reservers once per checkpoint when it
// falls inside (now, now+horizon].
func (l *ledger) RemindApproaching(ctx context.Context, now time.Time, horizon time.Duration) (Report, error) {
	var rep Report
	items, err := l.items.ListApproaching(ctx, now, horizon)
	if err != nil {
		return rep, fmt.Errorf("list approaching items: %w", err)
	}
	for i := range items {
		item := &items[i]
		if item.ReservedUntil == nil || item.ReminderSent {
			continue
		}
		rep.Items++
		if err := l.remindItem(ctx, item, &rep); err != nil {
			l.logger.Warn("remind item failed", "item_id", item.ItemID, "err", err)
			rep.fail(item.ItemID, err)
		}
	}
	return rep, nil
}

func (l *ledger) remindItem(ctx context.Context, item *domain.Item, rep *Report) error {
	claimed, err := l.items.ClaimReminder(ctx, item.ItemID, *item.ReservedUntil)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	active, err := l.reservations.ListActiveByItem(ctx, item.ItemID)
	if err != nil {
		return err
	}
	vars := map[string]string{"reserved_until": item.ReservedUntil.UTC().Format(domain.EventDateLayout)}
	var notifyErrs *multierror.Error
	for _, r := range active {
		rep.Reservations++
		if err := l.notifyReserver(ctx, item, r.ReserverID, domain.NotificationReservationReminder, vars); err != nil {
			notifyErrs = multierror.Append(notifyErrs, err)
			continue
		}
		rep.Notified++
	}
	return notifyErrs.ErrorOrNil()
}

func (l *ledger) clearIfUnreserved(ctx context.Context, itemID string) error {
	active, err := l.reservations.ListActiveByItem(ctx, itemID)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return nil
	}
	return l.items.ClearReservationState(ctx, itemID)
}

// notifyOwner tells the owner about a reservation change without naming the
// reserver.
func (l *ledger) notifyOwner(ctx context.Context, item *domain.Item, t domain.NotificationType) {
	_, err := l.notifier.Dispatch(ctx, notification.DispatchInput{
		RecipientID:       item.OwnerID,
		SenderID:          nil,
		Type:              t,
		MessageKey:        string(t),
		Title:             item.Name,
		Vars:              map[string]string{"item_name": item.Name},
		RelatedID:         &item.ItemID,
		RelatedWishlistID: optional(item.WishlistID),
	})
	if err != nil {
		l.logger.Warn("notify owner failed", "item_id", item.ItemID, "type", t, "err", err)
	}
}

func (l *ledger) notifyReserver(ctx context.Context, item *domain.Item, reserverID string, t domain.NotificationType, extra map[string]string) error {
	vars := map[string]string{"item_name": item.Name}
	for k, v := range extra {
		vars[k] = v
	}
	owner := item.OwnerID
	_, err := l.notifier.Dispatch(ctx, notification.DispatchInput{
		RecipientID:       reserverID,
		SenderID:          &owner,
		Type:              t,
		MessageKey:        string(t),
		Title:             item.Name,
		Vars:              vars,
		RelatedID:         &item.ItemID,
		RelatedWishlistID: optional(item.WishlistID),
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", reserverID, err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
