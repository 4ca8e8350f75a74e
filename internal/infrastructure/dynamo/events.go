package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/domain"
)

type EventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEventRepo(client *dynamodb.Client, tableName string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName}
}

// ListByDate returns events held on date (YYYY-MM-DD).
func (r *EventRepo) ListByDate(ctx context.Context, date string) ([]domain.Event, error) {
	var out []domain.Event
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexEventDate),
		KeyConditionExpression: aws.String("event_date = :d"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberS{Value: date},
		},
	}, &out)
	return out, err
}

func (r *EventRepo) ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	var out []domain.Event
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexCreatorID),
		KeyConditionExpression: aws.String("creator_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: creatorID},
		},
	}, &out)
	return out, err
}

// MarkReminderSent records that the reminder for day went out. It reports
// false when another pass already claimed that day.
func (r *EventRepo) MarkReminderSent(ctx context.Context, eventID, day string) (bool, error) {
	ue, err := newUpdate().
		Set(fieldReminderSentOn, day).
		When("event_id", "exists", nil).
		When(fieldReminderSentOn, "absent_or_<>", day).
		build()
	if err != nil {
		return false, err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("event_id", eventID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       optString(ue.Condition),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return false, nil
	}
	return err == nil, err
}

// StageRemoveInvitee drops userID from the event's denormalized invitee set.
func (r *EventRepo) StageRemoveInvitee(tx *Tx, eventID, userID string) {
	tx.Update(r.tableName, strKey("event_id", eventID)).
		DeleteFromSet(fieldInvitees, userID).
		Set(fieldUpdatedAt, time.Now().UTC())
}
