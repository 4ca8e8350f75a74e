package domain

import "time"

type NotificationType string

const (
	NotificationItemReserved        NotificationType = "item_reserved"
	NotificationItemUnreserved      NotificationType = "item_unreserved"
	NotificationReservationExpired  NotificationType = "reservation_expired"
	NotificationReservationReminder NotificationType = "reservation_reminder"
	NotificationEventReminder       NotificationType = "event_reminder"
	NotificationFriendRequest       NotificationType = "friend_request"
	NotificationFriendAccepted      NotificationType = "friend_accepted"
	NotificationEventInvitation     NotificationType = "event_invitation"
)

// Notification is immutable after creation except for IsRead.
// CreatedAtMs mirrors CreatedAt as the numeric sort key of the per-user index.
type Notification struct {
	NotificationID    string           `json:"id" dynamodbav:"notification_id"`
	UserID            string           `json:"user_id" dynamodbav:"user_id"`
	RelatedUserID     *string          `json:"related_user_id" dynamodbav:"related_user_id"`
	Type              NotificationType `json:"type" dynamodbav:"type"`
	Title             string           `json:"title" dynamodbav:"title"`
	Message           string           `json:"message" dynamodbav:"message"`
	RelatedID         *string          `json:"related_id" dynamodbav:"related_id"`
	RelatedWishlistID *string          `json:"related_wishlist_id" dynamodbav:"related_wishlist_id"`
	IsRead            bool             `json:"is_read" dynamodbav:"is_read"`
	CreatedAt         time.Time        `json:"created" dynamodbav:"created_at"`
	CreatedAtMs       int64            `json:"-" dynamodbav:"created_at_ms"`
}

// NotificationCounts is what clients show: Unread is the raw unread total,
// Badge only counts unread notifications newer than the last badge dismissal.
type NotificationCounts struct {
	Unread int `json:"unread_count"`
	Badge  int `json:"badge_count"`
}
