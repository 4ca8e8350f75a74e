package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-wishlist-api/internal/application/notification"
	"github.com/go-wishlist-api/internal/domain"
)

type fakeItems struct {
	items   map[string]*domain.Item
	failGet map[string]error
}

func newFakeItems(items ...domain.Item) *fakeItems {
	f := &fakeItems{items: map[string]*domain.Item{}, failGet: map[string]error{}}
	for i := range items {
		it := items[i]
		f.items[it.ItemID] = &it
	}
	return f
}

func (f *fakeItems) Get(_ context.Context, itemID string) (*domain.Item, error) {
	if err := f.failGet[itemID]; err != nil {
		return nil, err
	}
	it, ok := f.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	cp := *it
	return &cp, nil
}

func (f *fakeItems) SetCheckpoint(_ context.Context, itemID string, until time.Time) (bool, error) {
	it := f.items[itemID]
	if it.ReservedUntil != nil {
		return false, nil
	}
	it.ReservedUntil = &until
	it.ReservationState = domain.ReservationStateOpen
	it.ReminderSent = false
	it.ExtensionCount = 0
	return true, nil
}

func (f *fakeItems) ExtendCheckpoint(_ context.Context, itemID string, prev, next time.Time, prevCount int) error {
	it := f.items[itemID]
	if it.ReservedUntil == nil || !it.ReservedUntil.Equal(prev) || it.ExtensionCount != prevCount {
		return domain.ErrConflict
	}
	it.ReservedUntil = &next
	it.ExtensionCount++
	it.ReminderSent = false
	return nil
}

func (f *fakeItems) ClearReservationState(_ context.Context, itemID string) error {
	it := f.items[itemID]
	it.ReservedUntil = nil
	it.ReservationState = ""
	it.ReminderSent = false
	it.ExtensionCount = 0
	return nil
}

func (f *fakeItems) ClaimReminder(_ context.Context, itemID string, until time.Time) (bool, error) {
	it := f.items[itemID]
	if it.ReminderSent || it.ReservedUntil == nil || !it.ReservedUntil.Equal(until) {
		return false, nil
	}
	it.ReminderSent = true
	return true, nil
}

func (f *fakeItems) ListDue(_ context.Context, now time.Time) ([]domain.Item, error) {
	var out []domain.Item
	for _, it := range f.items {
		if it.ReservedUntil != nil && !it.ReservedUntil.After(now) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeItems) ListApproaching(_ context.Context, now time.Time, horizon time.Duration) ([]domain.Item, error) {
	var out []domain.Item
	for _, it := range f.items {
		if it.ReservedUntil == nil || it.ReminderSent {
			continue
		}
		if it.ReservedUntil.After(now) && !it.ReservedUntil.After(now.Add(horizon)) {
			out = append(out, *it)
		}
	}
	return out, nil
}

type fakeReservations struct {
	rows       map[string]*domain.Reservation
	failCancel map[string]error
}

func newFakeReservations(rows ...domain.Reservation) *fakeReservations {
	f := &fakeReservations{rows: map[string]*domain.Reservation{}, failCancel: map[string]error{}}
	for i := range rows {
		r := rows[i]
		f.rows[r.ItemID+"|"+r.ReserverID] = &r
	}
	return f
}

func (f *fakeReservations) Find(_ context.Context, itemID, reserverID string) (*domain.Reservation, error) {
	r, ok := f.rows[itemID+"|"+reserverID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) ListActiveByItem(_ context.Context, itemID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.rows {
		if r.ItemID == itemID && r.Active() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReservations) Upsert(_ context.Context, itemID, reserverID string, quantity int, now time.Time) (*domain.Reservation, error) {
	key := itemID + "|" + reserverID
	r, ok := f.rows[key]
	if !ok {
		r = &domain.Reservation{ItemID: itemID, ReserverID: reserverID, CreatedAt: now}
		f.rows[key] = r
	}
	r.Quantity = quantity
	r.Status = domain.ReservationReserved
	r.UpdatedAt = now
	cp := *r
	return &cp, nil
}

func (f *fakeReservations) Cancel(_ context.Context, itemID, reserverID string, now time.Time) error {
	key := itemID + "|" + reserverID
	if err := f.failCancel[key]; err != nil {
		return err
	}
	r, ok := f.rows[key]
	if !ok || !r.Active() {
		return domain.ErrNothingToCancel
	}
	r.Status = domain.ReservationCancelled
	r.UpdatedAt = now
	return nil
}

func (f *fakeReservations) activeSum(itemID string) int {
	total := 0
	for _, r := range f.rows {
		if r.ItemID == itemID && r.Active() {
			total += r.Quantity
		}
	}
	return total
}

type recordingNotifier struct {
	sent []notification.DispatchInput
	err  error
}

func (n *recordingNotifier) Dispatch(_ context.Context, in notification.DispatchInput) (*domain.Notification, error) {
	if n.err != nil {
		return nil, n.err
	}
	n.sent = append(n.sent, in)
	return &domain.Notification{UserID: in.RecipientID, Type: in.Type}, nil
}

func (n *recordingNotifier) to(userID string, t domain.NotificationType) int {
	count := 0
	for _, in := range n.sent {
		if in.RecipientID == userID && in.Type == t {
			count++
		}
	}
	return count
}

var errStore = errors.New("store unavailable")
