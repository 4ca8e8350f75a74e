package domain

import "time"

// User holds the relationship slice of a user profile. Profile fields are
// owned by the profile service and are not modelled here.
type User struct {
	UserID          string     `json:"id" dynamodbav:"user_id"`
	Username        string     `json:"username" dynamodbav:"username"`
	Language        string     `json:"language" dynamodbav:"language"`
	Friends         []string   `json:"friends" dynamodbav:"friends,stringset,omitempty"`
	BlockedUsers    []string   `json:"blocked_users" dynamodbav:"blocked_users,stringset,omitempty"`
	LastBadgeSeenAt *time.Time `json:"last_badge_seen_at" dynamodbav:"last_badge_seen_at"`
	CreatedAt       time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated" dynamodbav:"updated_at"`
}

func (u *User) IsFriend(userID string) bool { return contains(u.Friends, userID) }

func (u *User) HasBlocked(userID string) bool { return contains(u.BlockedUsers, userID) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
