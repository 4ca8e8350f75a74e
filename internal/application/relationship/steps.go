package relationship

import (
	"context"
	"errors"

	"github.com/go-wishlist-api/internal/domain"
)

// cascade is the state shared by the steps of one teardown.
type cascade struct {
	a, b  string
	store Store
	tx    Tx
	out   Outcome

	// touched maps item id to the reservers whose reservation was cancelled.
	touched map[string]map[string]bool
}

type step struct {
	name string
	run  func(ctx context.Context, c *cascade) error
}

var unfriendSteps = []step{
	{"friendship", removeFriendship},
	{"friend_requests", closeFriendRequests},
	{"invitations", deleteInvitations},
	{"invitees", stripInvitees},
	{"reservations", func(ctx context.Context, c *cascade) error {
		if err := cancelReservations(ctx, c, c.a, c.b); err != nil {
			return err
		}
		return cancelReservations(ctx, c, c.b, c.a)
	}},
	{"checkpoints", clearCheckpoints},
	{"notifications", deleteNotifications},
}

var blockSteps = []step{
	{"friendship", removeFriendship},
	{"friend_requests", closeFriendRequests},
	{"reservations", func(ctx context.Context, c *cascade) error {
		return cancelReservations(ctx, c, c.a, c.b)
	}},
	{"checkpoints", clearCheckpoints},
	{"block", func(_ context.Context, c *cascade) error {
		c.tx.AddBlocked(c.a, c.b)
		return nil
	}},
}

func removeFriendship(_ context.Context, c *cascade) error {
	c.tx.RemoveFriend(c.a, c.b)
	c.tx.RemoveFriend(c.b, c.a)
	return nil
}

// closeFriendRequests rejects accepted requests, keeping their history, and
// deletes pending ones.
func closeFriendRequests(ctx context.Context, c *cascade) error {
	requests, err := c.store.FriendRequestsBetween(ctx, c.a, c.b)
	if err != nil {
		return err
	}
	for _, r := range requests {
		switch r.Status {
		case domain.FriendRequestAccepted:
			c.tx.RejectFriendRequest(r.RequestID)
		case domain.FriendRequestPending:
			c.tx.DeleteFriendRequest(r.RequestID)
		default:
			continue
		}
		c.out.FriendRequestsClosed++
	}
	return nil
}

func deleteInvitations(ctx context.Context, c *cascade) error {
	invitations, err := c.store.InvitationsBetween(ctx, c.a, c.b)
	if err != nil {
		return err
	}
	for _, inv := range invitations {
		if !inv.Open() {
			continue
		}
		c.tx.DeleteInvitation(inv.EventID, inv.InviteeID)
		c.out.InvitationsDeleted++
	}
	return nil
}

func stripInvitees(ctx context.Context, c *cascade) error {
	for _, pair := range [][2]string{{c.a, c.b}, {c.b, c.a}} {
		creator, other := pair[0], pair[1]
		events, err := c.store.EventsByCreator(ctx, creator)
		if err != nil {
			return err
		}
		for _, ev := range events {
			for _, inv := range ev.Invitees {
				if inv == other {
					c.tx.RemoveInvitee(ev.EventID, other)
					c.out.InviteesRemoved++
					break
				}
			}
		}
	}
	return nil
}

// cancelReservations cancels reserver's active reservations on owner's items
// that have not been purchased.
func cancelReservations(ctx context.Context, c *cascade, reserver, owner string) error {
	active, err := c.store.ActiveReservationsBy(ctx, reserver)
	if err != nil {
		return err
	}
	for _, r := range active {
		item, err := c.store.GetItem(ctx, r.ItemID)
		if errors.Is(err, domain.ErrNotFound) {
			// Items are deleted elsewhere; their reservation rows are left behind.
			continue
		}
		if err != nil {
			return err
		}
		if item.OwnerID != owner || item.IsPurchased {
			continue
		}
		c.tx.CancelReservation(r.ItemID, reserver)
		c.out.ReservationsCancelled++
		if c.touched[r.ItemID] == nil {
			c.touched[r.ItemID] = map[string]bool{}
		}
		c.touched[r.ItemID][reserver] = true
	}
	return nil
}

// clearCheckpoints resets items that will have no active reservation left
// once the staged cancellations apply.
func clearCheckpoints(ctx context.Context, c *cascade) error {
	for itemID, cancelled := range c.touched {
		active, err := c.store.ActiveReservationsOn(ctx, itemID)
		if err != nil {
			return err
		}
		remaining := 0
		for _, r := range active {
			if !cancelled[r.ReserverID] {
				remaining++
			}
		}
		if remaining == 0 {
			c.tx.ClearItemReservationState(itemID)
			c.out.ItemsCleared++
		}
	}
	return nil
}

func deleteNotifications(ctx context.Context, c *cascade) error {
	notifications, err := c.store.NotificationsBetween(ctx, c.a, c.b)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		c.tx.DeleteNotification(n.NotificationID)
		c.out.NotificationsDeleted++
	}
	return nil
}
