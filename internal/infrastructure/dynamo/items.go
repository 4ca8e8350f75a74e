package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/domain"
)

// ItemRepo provides typed DynamoDB operations for the items table. Only the
// reservation bookkeeping of an item is written here; wishlist CRUD lives in
// the catalogue service.
type ItemRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewItemRepo(client *dynamodb.Client, tableName string) *ItemRepo {
	return &ItemRepo{client: client, tableName: tableName}
}

func (r *ItemRepo) Get(ctx context.Context, itemID string) (*domain.Item, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("item_id", itemID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	var it domain.Item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// SetCheckpoint starts the reservation window of an item that has none.
// It reports false when a checkpoint already exists, which is left untouched.
func (r *ItemRepo) SetCheckpoint(ctx context.Context, itemID string, until time.Time) (bool, error) {
	u := newUpdate().
		Set(fieldReservedUntil, attributevalue.UnixTime(until)).
		Set(fieldReservationState, domain.ReservationStateOpen).
		Set(fieldReminderSent, false).
		Set(fieldExtensionCount, 0).
		Set(fieldUpdatedAt, time.Now().UTC()).
		When("item_id", "exists", nil).
		When(fieldReservedUntil, "not_exists", nil)
	err := r.apply(ctx, itemID, u)
	if isConditionFailed(err) {
		return false, nil
	}
	return err == nil, err
}

// ExtendCheckpoint moves the checkpoint from prev to next and bumps the
// extension counter. The write only applies if neither changed concurrently.
func (r *ItemRepo) ExtendCheckpoint(ctx context.Context, itemID string, prev, next time.Time, prevCount int) error {
	u := newUpdate().
		Set(fieldReservedUntil, attributevalue.UnixTime(next)).
		Set(fieldReminderSent, false).
		Set(fieldExtensionCount, prevCount+1).
		Set(fieldUpdatedAt, time.Now().UTC()).
		When(fieldReservedUntil, "=", attributevalue.UnixTime(prev)).
		When(fieldExtensionCount, "=", prevCount)
	err := r.apply(ctx, itemID, u)
	if isConditionFailed(err) {
		return fmt.Errorf("item %s checkpoint moved: %w", itemID, domain.ErrConflict)
	}
	return err
}

func (r *ItemRepo) ClearReservationState(ctx context.Context, itemID string) error {
	return r.apply(ctx, itemID, clearReservationState(newUpdate()))
}

func (r *ItemRepo) StageClearReservationState(tx *Tx, itemID string) {
	clearReservationState(tx.Update(r.tableName, strKey("item_id", itemID)))
}

func clearReservationState(u *update) *update {
	return u.
		Remove(fieldReservedUntil).
		Remove(fieldReservationState).
		Set(fieldReminderSent, false).
		Set(fieldExtensionCount, 0).
		Set(fieldUpdatedAt, time.Now().UTC())
}

// ClaimReminder flips the reminder flag for the checkpoint until. It reports
// false when the flag was already set or the checkpoint has moved.
func (r *ItemRepo) ClaimReminder(ctx context.Context, itemID string, until time.Time) (bool, error) {
	u := newUpdate().
		Set(fieldReminderSent, true).
		When(fieldReminderSent, "=", false).
		When(fieldReservedUntil, "=", attributevalue.UnixTime(until))
	err := r.apply(ctx, itemID, u)
	if isConditionFailed(err) {
		return false, nil
	}
	return err == nil, err
}

// ListDue returns items whose checkpoint is at or before now.
func (r *ItemRepo) ListDue(ctx context.Context, now time.Time) ([]domain.Item, error) {
	var items []domain.Item
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexReservationDue),
		KeyConditionExpression: aws.String("#st = :open AND #ru <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#st": fieldReservationState,
			"#ru": fieldReservedUntil,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":open": &types.AttributeValueMemberS{Value: domain.ReservationStateOpen},
			":now":  unixN(now),
		},
	}, &items)
	return items, err
}

// ListApproaching returns items whose checkpoint falls in (now, now+horizon]
// and whose reminder has not been sent.
func (r *ItemRepo) ListApproaching(ctx context.Context, now time.Time, horizon time.Duration) ([]domain.Item, error) {
	var items []domain.Item
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexReservationDue),
		KeyConditionExpression: aws.String("#st = :open AND #ru BETWEEN :from AND :to"),
		FilterExpression:       aws.String("#rs = :false"),
		ExpressionAttributeNames: map[string]string{
			"#st": fieldReservationState,
			"#ru": fieldReservedUntil,
			"#rs": fieldReminderSent,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":open":  &types.AttributeValueMemberS{Value: domain.ReservationStateOpen},
			":from":  unixN(now.Add(time.Second)),
			":to":    unixN(now.Add(horizon)),
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
	}, &items)
	return items, err
}

func (r *ItemRepo) apply(ctx context.Context, itemID string, u *update) error {
	ue, err := u.build()
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("item_id", itemID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       optString(ue.Condition),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func unixN(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}
