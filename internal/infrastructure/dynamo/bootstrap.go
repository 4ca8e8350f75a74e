package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-wishlist-api/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables, logger *slog.Logger) {
	b := &bootstrapper{client: client, logger: logger}

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("user_id", types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("user_id"), KeyType: types.KeyTypeHash},
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Devices),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("device_id", types.ScalarAttributeTypeS),
			attr("user_id", types.ScalarAttributeTypeS),
			attr("device_uuid", types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("device_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserID, "user_id", ""),
			gsi(indexDeviceUUID, "device_uuid", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Notifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("notification_id", types.ScalarAttributeTypeS),
			attr("user_id", types.ScalarAttributeTypeS),
			attr("created_at_ms", types.ScalarAttributeTypeN),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("notification_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserCreatedAt, "user_id", "created_at_ms"),
		},
	})

	// reservation_state only exists while an item carries a checkpoint, which
	// keeps the due-index down to the items the sweeper has to look at.
	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Items),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("item_id", types.ScalarAttributeTypeS),
			attr("reservation_state", types.ScalarAttributeTypeS),
			attr("reserved_until", types.ScalarAttributeTypeN),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("item_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexReservationDue, "reservation_state", "reserved_until"),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Reservations),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("item_id", types.ScalarAttributeTypeS),
			attr("reserver_id", types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("item_id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("reserver_id"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexReserverID, "reserver_id", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.FriendRequests),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("request_id", types.ScalarAttributeTypeS),
			attr("sender_id", types.ScalarAttributeTypeS),
			attr("receiver_id", types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("request_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexSenderID, "sender_id", ""),
			gsi(indexReceiverID, "receiver_id", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Events),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("event_id", types.ScalarAttributeTypeS),
			attr("creator_id", types.ScalarAttributeTypeS),
			attr("event_date", types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("event_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexCreatorID, "creator_id", ""),
			gsi(indexEventDate, "event_date", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.EventInvitations),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr("event_id", types.ScalarAttributeTypeS),
			attr("invitee_id", types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("event_id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("invitee_id"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexInviteeID, "invitee_id", ""),
		},
	})
}

type bootstrapper struct {
	client *dynamodb.Client
	logger *slog.Logger
}

func attr(name string, t types.ScalarAttributeType) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: t}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func (b *bootstrapper) createTable(ctx context.Context, input *dynamodb.CreateTableInput) {
	_, err := b.client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			b.logger.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	b.logger.Info("created table", "table", *input.TableName)
}
