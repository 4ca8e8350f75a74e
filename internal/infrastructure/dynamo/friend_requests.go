package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/domain"
)

type FriendRequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFriendRequestRepo(client *dynamodb.Client, tableName string) *FriendRequestRepo {
	return &FriendRequestRepo{client: client, tableName: tableName}
}

// ListBetween returns requests sent in either direction between a and b.
func (r *FriendRequestRepo) ListBetween(ctx context.Context, a, b string) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		var page []domain.FriendRequest
		err := queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(indexSenderID),
			KeyConditionExpression: aws.String("sender_id = :s"),
			FilterExpression:       aws.String("receiver_id = :r"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":s": &types.AttributeValueMemberS{Value: pair[0]},
				":r": &types.AttributeValueMemberS{Value: pair[1]},
			},
		}, &page)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

func (r *FriendRequestRepo) StageReject(tx *Tx, requestID string) {
	tx.Update(r.tableName, strKey("request_id", requestID)).
		Set(fieldStatus, domain.FriendRequestRejected).
		Set(fieldUpdatedAt, time.Now().UTC())
}

func (r *FriendRequestRepo) StageDelete(tx *Tx, requestID string) {
	tx.Delete(r.tableName, strKey("request_id", requestID))
}
