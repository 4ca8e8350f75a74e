package domain

import "time"

// ReservationStateOpen marks an item that currently carries a reservation
// checkpoint. The attribute is removed together with reserved_until so the
// sweeper index only holds items that can expire.
const ReservationStateOpen = "open"

// Item is a giftable entry on a wishlist.
type Item struct {
	ItemID           string     `json:"id" dynamodbav:"item_id"`
	WishlistID       string     `json:"wishlist_id" dynamodbav:"wishlist_id"`
	OwnerID          string     `json:"owner_id" dynamodbav:"owner_id"`
	Name             string     `json:"name" dynamodbav:"name"`
	Quantity         int        `json:"quantity" dynamodbav:"quantity"`
	ReservedUntil    *time.Time `json:"reserved_until" dynamodbav:"reserved_until,unixtime,omitempty"`
	ReservationState string     `json:"-" dynamodbav:"reservation_state,omitempty"`
	ReminderSent     bool       `json:"reservation_reminder_sent" dynamodbav:"reservation_reminder_sent"`
	ExtensionCount   int        `json:"reservation_extension_count" dynamodbav:"reservation_extension_count"`
	IsReceived       bool       `json:"is_received" dynamodbav:"is_received"`
	IsPurchased      bool       `json:"is_purchased" dynamodbav:"is_purchased"`
	CreatedAt        time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"updated" dynamodbav:"updated_at"`
}
