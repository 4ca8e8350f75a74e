package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/domain"
)

// ReservationRepo stores one row per (item, reserver). Rows are never
// deleted; cancelling flips the status.
type ReservationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewReservationRepo(client *dynamodb.Client, tableName string) *ReservationRepo {
	return &ReservationRepo{client: client, tableName: tableName}
}

func reservationKey(itemID, reserverID string) map[string]types.AttributeValue {
	return compositeKey("item_id", itemID, "reserver_id", reserverID)
}

// Find returns the pair's row, or nil when the pair never reserved.
func (r *ReservationRepo) Find(ctx context.Context, itemID, reserverID string) (*domain.Reservation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            reservationKey(itemID, reserverID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var res domain.Reservation
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepo) ListActiveByItem(ctx context.Context, itemID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		KeyConditionExpression:   aws.String("item_id = :id"),
		FilterExpression:         aws.String("#s = :reserved"),
		ExpressionAttributeNames: map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":       &types.AttributeValueMemberS{Value: itemID},
			":reserved": &types.AttributeValueMemberS{Value: string(domain.ReservationReserved)},
		},
		ConsistentRead: aws.Bool(true),
	}, &out)
	return out, err
}

func (r *ReservationRepo) ListActiveByReserver(ctx context.Context, reserverID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexReserverID),
		KeyConditionExpression:   aws.String("reserver_id = :id"),
		FilterExpression:         aws.String("#s = :reserved"),
		ExpressionAttributeNames: map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":       &types.AttributeValueMemberS{Value: reserverID},
			":reserved": &types.AttributeValueMemberS{Value: string(domain.ReservationReserved)},
		},
	}, &out)
	return out, err
}

// Upsert creates the pair's row or reactivates it with a new quantity.
// created_at is only written on first insert.
func (r *ReservationRepo) Upsert(ctx context.Context, itemID, reserverID string, quantity int, now time.Time) (*domain.Reservation, error) {
	ue, err := newUpdate().
		Set(fieldQuantity, quantity).
		Set(fieldStatus, domain.ReservationReserved).
		Set(fieldUpdatedAt, now).
		SetIfAbsent(fieldCreatedAt, now).
		build()
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       reservationKey(itemID, reserverID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var res domain.Reservation
	if err := attributevalue.UnmarshalMap(out.Attributes, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Cancel flips an active row to cancelled.
func (r *ReservationRepo) Cancel(ctx context.Context, itemID, reserverID string, now time.Time) error {
	ue, err := cancelReservation(newUpdate(), now).build()
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       reservationKey(itemID, reserverID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       optString(ue.Condition),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("reservation %s/%s: %w", itemID, reserverID, domain.ErrNothingToCancel)
	}
	return err
}

func (r *ReservationRepo) StageCancel(tx *Tx, itemID, reserverID string) {
	cancelReservation(tx.Update(r.tableName, reservationKey(itemID, reserverID)), time.Now().UTC())
}

func cancelReservation(u *update, now time.Time) *update {
	return u.
		Set(fieldStatus, domain.ReservationCancelled).
		Set(fieldUpdatedAt, now).
		When(fieldStatus, "=", domain.ReservationReserved)
}
