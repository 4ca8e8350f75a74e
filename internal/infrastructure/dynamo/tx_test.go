package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTx_MergesWritesOnSameKey(t *testing.T) {
	tx := NewTx()
	tx.Update("users", strKey("user_id", "a")).DeleteFromSet("friends", "b")
	tx.Update("users", strKey("user_id", "a")).AddToSet("blocked_users", "b")
	tx.Update("users", strKey("user_id", "b")).DeleteFromSet("friends", "a")

	assert.Equal(t, 2, tx.Len())

	items, err := tx.items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Update)
	assert.Equal(t, "ADD #f0 :v0 DELETE #f1 :v1", *items[0].Update.UpdateExpression)
}

func TestTx_DeleteSupersedesUpdate(t *testing.T) {
	tx := NewTx()
	tx.Update("friend_requests", strKey("request_id", "r1")).Set("status", "rejected")
	tx.Delete("friend_requests", strKey("request_id", "r1"))

	items, err := tx.items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Update)
	require.NotNil(t, items[0].Delete)
	assert.Nil(t, items[0].Delete.ConditionExpression)
}

func TestTx_PreservesFirstTouchOrder(t *testing.T) {
	tx := NewTx()
	tx.Update("items", strKey("item_id", "i2")).Set("quantity", 1)
	tx.Delete("notifications", strKey("notification_id", "n1"))
	tx.Update("items", strKey("item_id", "i1")).Set("quantity", 1)
	tx.Update("items", strKey("item_id", "i2")).Set("status", "x")

	items, err := tx.items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "i2", items[0].Update.Key["item_id"].(*types.AttributeValueMemberS).Value)
	assert.NotNil(t, items[1].Delete)
	assert.Equal(t, "i1", items[2].Update.Key["item_id"].(*types.AttributeValueMemberS).Value)
}

func TestTx_CompositeKeysAreDistinct(t *testing.T) {
	tx := NewTx()
	tx.Delete("event_invitations", compositeKey("event_id", "e1", "invitee_id", "a"))
	tx.Delete("event_invitations", compositeKey("event_id", "e1", "invitee_id", "b"))
	assert.Equal(t, 2, tx.Len())
}

func TestTx_EmptyUpdateIsSkipped(t *testing.T) {
	tx := NewTx()
	tx.Update("users", strKey("user_id", "a"))

	items, err := tx.items()
	require.NoError(t, err)
	assert.Empty(t, items)
}
