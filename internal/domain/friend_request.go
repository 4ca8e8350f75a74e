package domain

import "time"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

type FriendRequest struct {
	RequestID  string              `json:"id" dynamodbav:"request_id"`
	SenderID   string              `json:"sender_id" dynamodbav:"sender_id"`
	ReceiverID string              `json:"receiver_id" dynamodbav:"receiver_id"`
	Status     FriendRequestStatus `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time           `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time           `json:"updated" dynamodbav:"updated_at"`
}

// RelationshipState is the friend-relation state machine seen from one user.
type RelationshipState string

const (
	RelationshipNone            RelationshipState = "none"
	RelationshipPendingSent     RelationshipState = "pending_sent"
	RelationshipPendingReceived RelationshipState = "pending_received"
	RelationshipFriends         RelationshipState = "friends"
	RelationshipBlocked         RelationshipState = "blocked"
)
