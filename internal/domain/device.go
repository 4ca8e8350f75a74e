package domain

import "time"

type RegisterDeviceRequest struct {
	UUID  *string `json:"uuid"`
	Token *string `json:"token"`
}

type UpdateDeviceRequest struct {
	Token *string `json:"token"`
}

// Device is a registered client installation. Token holds the push endpoint
// and is cleared when the provider reports the endpoint as invalid.
type Device struct {
	DeviceID  string    `json:"id" dynamodbav:"device_id"`
	UUID      string    `json:"uuid" dynamodbav:"device_uuid"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Token     *string   `json:"token" dynamodbav:"token"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
