package relationship

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/infrastructure/dynamo"
)

// Repos bundles the tables a teardown reads and writes.
type Repos struct {
	Users          *dynamo.UserRepo
	Items          *dynamo.ItemRepo
	Reservations   *dynamo.ReservationRepo
	FriendRequests *dynamo.FriendRequestRepo
	Events         *dynamo.EventRepo
	Invitations    *dynamo.InvitationRepo
	Notifications  *dynamo.NotificationRepo
}

// DynamoStore commits a teardown with one TransactWriteItems call.
type DynamoStore struct {
	client *dynamodb.Client
	r      Repos
}

func NewDynamoStore(client *dynamodb.Client, repos Repos) *DynamoStore {
	return &DynamoStore{client: client, r: repos}
}

func (s *DynamoStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.r.Users.Get(ctx, userID)
}

func (s *DynamoStore) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	return s.r.Items.Get(ctx, itemID)
}

func (s *DynamoStore) FriendRequestsBetween(ctx context.Context, a, b string) ([]domain.FriendRequest, error) {
	return s.r.FriendRequests.ListBetween(ctx, a, b)
}

func (s *DynamoStore) InvitationsBetween(ctx context.Context, a, b string) ([]domain.EventInvitation, error) {
	return s.r.Invitations.ListBetween(ctx, a, b)
}

func (s *DynamoStore) EventsByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	return s.r.Events.ListByCreator(ctx, creatorID)
}

func (s *DynamoStore) ActiveReservationsBy(ctx context.Context, reserverID string) ([]domain.Reservation, error) {
	return s.r.Reservations.ListActiveByReserver(ctx, reserverID)
}

func (s *DynamoStore) ActiveReservationsOn(ctx context.Context, itemID string) ([]domain.Reservation, error) {
	return s.r.Reservations.ListActiveByItem(ctx, itemID)
}

func (s *DynamoStore) NotificationsBetween(ctx context.Context, a, b string) ([]domain.Notification, error) {
	return s.r.Notifications.ListBetween(ctx, a, b)
}

func (s *DynamoStore) RemoveBlocked(ctx context.Context, userID, blockedID string) error {
	return s.r.Users.RemoveBlocked(ctx, userID, blockedID)
}

func (s *DynamoStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := dynamo.NewTx()
	if err := fn(&dynamoTx{tx: tx, r: &s.r}); err != nil {
		return err
	}
	return dynamo.Commit(ctx, s.client, tx)
}

type dynamoTx struct {
	tx *dynamo.Tx
	r  *Repos
}

func (t *dynamoTx) RemoveFriend(userID, friendID string) {
	t.r.Users.StageRemoveFriend(t.tx, userID, friendID)
}

func (t *dynamoTx) AddBlocked(userID, blockedID string) {
	t.r.Users.StageAddBlocked(t.tx, userID, blockedID)
}

func (t *dynamoTx) RejectFriendRequest(requestID string) {
	t.r.FriendRequests.StageReject(t.tx, requestID)
}

func (t *dynamoTx) DeleteFriendRequest(requestID string) {
	t.r.FriendRequests.StageDelete(t.tx, requestID)
}

func (t *dynamoTx) DeleteInvitation(eventID, inviteeID string) {
	t.r.Invitations.StageDelete(t.tx, eventID, inviteeID)
}

func (t *dynamoTx) RemoveInvitee(eventID, userID string) {
	t.r.Events.StageRemoveInvitee(t.tx, eventID, userID)
}

func (t *dynamoTx) CancelReservation(itemID, reserverID string) {
	t.r.Reservations.StageCancel(t.tx, itemID, reserverID)
}

func (t *dynamoTx) ClearItemReservationState(itemID string) {
	t.r.Items.StageClearReservationState(t.tx, itemID)
}

func (t *dynamoTx) DeleteNotification(notificationID string) {
	t.r.Notifications.StageDelete(t.tx, notificationID)
}
