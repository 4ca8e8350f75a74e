package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldToken            = "token"
	fieldUpdatedAt        = "updated_at"
	fieldCreatedAt        = "created_at"
	fieldIsRead           = "is_read"
	fieldStatus           = "status"
	fieldQuantity         = "quantity"
	fieldFriends          = "friends"
	fieldBlockedUsers     = "blocked_users"
	fieldLastBadgeSeenAt  = "last_badge_seen_at"
	fieldReservedUntil    = "reserved_until"
	fieldReservationState = "reservation_state"
	fieldReminderSent     = "reservation_reminder_sent"
	fieldExtensionCount   = "reservation_extension_count"
	fieldInvitees         = "invitees"
	fieldReminderSentOn   = "reminder_sent_on"
)

// Index names created by Bootstrap.
const (
	indexUserID         = "user_id-index"
	indexDeviceUUID     = "device_uuid-index"
	indexUserCreatedAt  = "user_id-created_at_ms-index"
	indexReservationDue = "reservation_state-reserved_until-index"
	indexReserverID     = "reserver_id-index"
	indexSenderID       = "sender_id-index"
	indexReceiverID     = "receiver_id-index"
	indexCreatorID      = "creator_id-index"
	indexEventDate      = "event_date-index"
	indexInviteeID      = "invitee_id-index"
)
