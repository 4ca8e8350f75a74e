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

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	n.CreatedAtMs = n.CreatedAt.UnixMilli()
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the newest notifications first. limit <= 0 means all.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreatedAt),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var notifications []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
			return nil, err
		}
		return notifications, nil
	}
	var notifications []domain.Notification
	err := queryAll(ctx, r.client, input, &notifications)
	return notifications, err
}

// ListUnread queries the per-user index and filters for is_read = false.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := queryAll(ctx, r.client, r.unreadQuery(userID, nil), &notifications)
	return notifications, err
}

// CountUnread counts unread notifications, restricted to those created after
// since when it is set.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID string, since *time.Time) (int, error) {
	return countAll(ctx, r.client, r.unreadQuery(userID, since))
}

func (r *NotificationRepo) unreadQuery(userID string, since *time.Time) *dynamodb.QueryInput {
	keyCond := "user_id = :uid"
	values := map[string]types.AttributeValue{
		":uid":   &types.AttributeValueMemberS{Value: userID},
		":false": &types.AttributeValueMemberBOOL{Value: false},
	}
	if since != nil {
		keyCond += " AND created_at_ms > :since"
		values[":since"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(since.UnixMilli(), 10)}
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreatedAt),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          aws.String("#r = :false"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldIsRead},
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
	}
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// MarkAllAsRead flips every unread notification of the user and returns how
// many were changed.
func (r *NotificationRepo) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	unread, err := r.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, n := range unread {
		if err := r.MarkAsRead(ctx, n.NotificationID); err != nil {
			return i, err
		}
	}
	return len(unread), nil
}

func (r *NotificationRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	return err
}

// ListBetween returns the notifications either user received from the other.
func (r *NotificationRepo) ListBetween(ctx context.Context, a, b string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		var page []domain.Notification
		err := queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:                aws.String(r.tableName),
			IndexName:                aws.String(indexUserCreatedAt),
			KeyConditionExpression:   aws.String("user_id = :uid"),
			FilterExpression:         aws.String("#rel = :other"),
			ExpressionAttributeNames: map[string]string{"#rel": "related_user_id"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid":   &types.AttributeValueMemberS{Value: pair[0]},
				":other": &types.AttributeValueMemberS{Value: pair[1]},
			},
		}, &page)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

func (r *NotificationRepo) StageDelete(tx *Tx, notificationID string) {
	tx.Delete(r.tableName, strKey("notification_id", notificationID))
}
