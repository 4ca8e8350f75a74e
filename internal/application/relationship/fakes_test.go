package relationship

import (
	"context"
	"errors"
	"sort"

	"github.com/go-wishlist-api/internal/domain"
)

var errBoom = errors.New("boom")

// memStore keeps every table in maps. Staged writes are buffered by memTx and
// only applied when WithTx commits.
type memStore struct {
	users         map[string]*domain.User
	items         map[string]*domain.Item
	reservations  map[string]*domain.Reservation
	requests      map[string]*domain.FriendRequest
	events        map[string]*domain.Event
	invitations   map[string]*domain.EventInvitation
	notifications map[string]*domain.Notification

	failRead   string
	failCommit bool
	commits    int
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*domain.User{},
		items:         map[string]*domain.Item{},
		reservations:  map[string]*domain.Reservation{},
		requests:      map[string]*domain.FriendRequest{},
		events:        map[string]*domain.Event{},
		invitations:   map[string]*domain.EventInvitation{},
		notifications: map[string]*domain.Notification{},
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *memStore) addUser(id string, friends ...string) {
	m.users[id] = &domain.User{UserID: id, Friends: friends}
}

func (m *memStore) addItem(id, owner string, purchased bool) {
	m.items[id] = &domain.Item{ItemID: id, OwnerID: owner, Name: id, Quantity: 5, IsPurchased: purchased, ReservationState: domain.ReservationStateOpen}
}

func (m *memStore) reserve(itemID, reserver string) {
	m.reservations[pairKey(itemID, reserver)] = &domain.Reservation{ItemID: itemID, ReserverID: reserver, Quantity: 1, Status: domain.ReservationReserved}
}

func (m *memStore) fail(op string) error {
	if m.failRead == op {
		return errBoom
	}
	return nil
}

func (m *memStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetItem(_ context.Context, itemID string) (*domain.Item, error) {
	if err := m.fail("GetItem"); err != nil {
		return nil, err
	}
	it, ok := m.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memStore) FriendRequestsBetween(_ context.Context, a, b string) ([]domain.FriendRequest, error) {
	if err := m.fail("FriendRequestsBetween"); err != nil {
		return nil, err
	}
	var out []domain.FriendRequest
	for _, r := range m.requests {
		if (r.SenderID == a && r.ReceiverID == b) || (r.SenderID == b && r.ReceiverID == a) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) InvitationsBetween(_ context.Context, a, b string) ([]domain.EventInvitation, error) {
	var out []domain.EventInvitation
	for _, inv := range m.invitations {
		if (inv.EventCreatorID == a && inv.InviteeID == b) || (inv.EventCreatorID == b && inv.InviteeID == a) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memStore) EventsByCreator(_ context.Context, creatorID string) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range m.events {
		if ev.CreatorID == creatorID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (m *memStore) ActiveReservationsBy(_ context.Context, reserverID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.ReserverID == reserverID && r.Active() {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (m *memStore) ActiveReservationsOn(_ context.Context, itemID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.ItemID == itemID && r.Active() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) NotificationsBetween(_ context.Context, a, b string) ([]domain.Notification, error) {
	if err := m.fail("NotificationsBetween"); err != nil {
		return nil, err
	}
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.RelatedUserID == nil {
			continue
		}
		if (n.UserID == a && *n.RelatedUserID == b) || (n.UserID == b && *n.RelatedUserID == a) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *memStore) RemoveBlocked(_ context.Context, userID, blockedID string) error {
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.BlockedUsers = without(u.BlockedUsers, blockedID)
	return nil
}

func (m *memStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		return err
	}
	if m.failCommit {
		return domain.ErrConflict
	}
	for _, apply := range tx.ops {
		apply()
	}
	m.commits++
	return nil
}

type memTx struct {
	m   *memStore
	ops []func()
}

func (t *memTx) stage(fn func()) { t.ops = append(t.ops, fn) }

func (t *memTx) RemoveFriend(userID, friendID string) {
	t.stage(func() {
		if u, ok := t.m.users[userID]; ok {
			u.Friends = without(u.Friends, friendID)
		}
	})
}

func (t *memTx) AddBlocked(userID, blockedID string) {
	t.stage(func() {
		u := t.m.users[userID]
		u.BlockedUsers = append(without(u.BlockedUsers, blockedID), blockedID)
	})
}

func (t *memTx) RejectFriendRequest(requestID string) {
	t.stage(func() { t.m.requests[requestID].Status = domain.FriendRequestRejected })
}

func (t *memTx) DeleteFriendRequest(requestID string) {
	t.stage(func() { delete(t.m.requests, requestID) })
}

func (t *memTx) DeleteInvitation(eventID, inviteeID string) {
	t.stage(func() { delete(t.m.invitations, pairKey(eventID, inviteeID)) })
}

func (t *memTx) RemoveInvitee(eventID, userID string) {
	t.stage(func() {
		ev := t.m.events[eventID]
		ev.Invitees = without(ev.Invitees, userID)
	})
}

func (t *memTx) CancelReservation(itemID, reserverID string) {
	t.stage(func() { t.m.reservations[pairKey(itemID, reserverID)].Status = domain.ReservationCancelled })
}

func (t *memTx) ClearItemReservationState(itemID string) {
	t.stage(func() {
		it := t.m.items[itemID]
		it.ReservedUntil = nil
		it.ReservationState = ""
		it.ReminderSent = false
		it.ExtensionCount = 0
	})
}

func (t *memTx) DeleteNotification(notificationID string) {
	t.stage(func() { delete(t.m.notifications, notificationID) })
}

func without(set []string, v string) []string {
	out := set[:0:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
