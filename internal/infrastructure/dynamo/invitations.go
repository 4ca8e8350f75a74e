package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/domain"
)

type InvitationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewInvitationRepo(client *dynamodb.Client, tableName string) *InvitationRepo {
	return &InvitationRepo{client: client, tableName: tableName}
}

func (r *InvitationRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.EventInvitation, error) {
	var out []domain.EventInvitation
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("event_id = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: eventID},
		},
	}, &out)
	return out, err
}

// ListBetween returns invitations where one user invited the other, in
// either direction.
func (r *InvitationRepo) ListBetween(ctx context.Context, a, b string) ([]domain.EventInvitation, error) {
	var out []domain.EventInvitation
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		var page []domain.EventInvitation
		err := queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(indexInviteeID),
			KeyConditionExpression: aws.String("invitee_id = :i"),
			FilterExpression:       aws.String("event_creator_id = :c"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":i": &types.AttributeValueMemberS{Value: pair[1]},
				":c": &types.AttributeValueMemberS{Value: pair[0]},
			},
		}, &page)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

func (r *InvitationRepo) StageDelete(tx *Tx, eventID, inviteeID string) {
	tx.Delete(r.tableName, compositeKey("event_id", eventID, "invitee_id", inviteeID))
}
