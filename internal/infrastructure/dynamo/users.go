package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-wishlist-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("user_id", userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) SetLastBadgeSeenAt(ctx context.Context, userID string, at time.Time) error {
	return r.apply(ctx, userID, newUpdate().Set(fieldLastBadgeSeenAt, at.UTC()))
}

func (r *UserRepo) RemoveBlocked(ctx context.Context, userID, blockedID string) error {
	return r.apply(ctx, userID, newUpdate().DeleteFromSet(fieldBlockedUsers, blockedID))
}

// StageRemoveFriend stages removal of friendID from userID's friend set.
func (r *UserRepo) StageRemoveFriend(tx *Tx, userID, friendID string) {
	tx.Update(r.tableName, strKey("user_id", userID)).
		DeleteFromSet(fieldFriends, friendID).
		Set(fieldUpdatedAt, time.Now().UTC())
}

// StageAddBlocked stages adding blockedID to userID's block set.
func (r *UserRepo) StageAddBlocked(tx *Tx, userID, blockedID string) {
	tx.Update(r.tableName, strKey("user_id", userID)).
		AddToSet(fieldBlockedUsers, blockedID).
		Set(fieldUpdatedAt, time.Now().UTC())
}

func (r *UserRepo) apply(ctx context.Context, userID string, u *update) error {
	u.Set(fieldUpdatedAt, time.Now().UTC()).When("user_id", "exists", nil)
	ue, err := u.build()
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       optString(ue.Condition),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return err
}
