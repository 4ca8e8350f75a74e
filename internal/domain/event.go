package domain

import "time"

// EventDateLayout is the calendar-date format of Event.Date.
const EventDateLayout = "2006-01-02"

type Event struct {
	EventID        string    `json:"id" dynamodbav:"event_id"`
	CreatorID      string    `json:"creator_id" dynamodbav:"creator_id"`
	Title          string    `json:"title" dynamodbav:"title"`
	Date           string    `json:"event_date" dynamodbav:"event_date"`
	Invitees       []string  `json:"invitees" dynamodbav:"invitees,stringset,omitempty"`
	ReminderSentOn string    `json:"-" dynamodbav:"reminder_sent_on,omitempty"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationMaybe    InvitationStatus = "maybe"
)

// EventInvitation is the source of truth for who is invited to what,
// independent of Event.Invitees.
type EventInvitation struct {
	EventID        string           `json:"event_id" dynamodbav:"event_id"`
	InviteeID      string           `json:"invitee_id" dynamodbav:"invitee_id"`
	EventCreatorID string           `json:"event_creator_id" dynamodbav:"event_creator_id"`
	Status         InvitationStatus `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time        `json:"updated" dynamodbav:"updated_at"`
}

// Open reports whether the invitee has not declined.
func (i EventInvitation) Open() bool {
	return i.Status != InvitationDeclined
}
