package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	AWSMaxAttempts int
	DynamoTables   DynamoTables
	SNSRegion      string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins

	ReservationTTL           time.Duration
	MaxReservationExtensions int
	Sweeper                  SweeperConfig
}

// SweeperConfig controls the background expiration and reminder passes.
type SweeperConfig struct {
	Enabled              bool
	HourlyInterval       time.Duration
	DailyInterval        time.Duration
	ReminderHorizon      time.Duration
	EventReminderDaysOut int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users            string
	Devices          string
	Notifications    string
	Items            string
	Reservations     string
	FriendRequests   string
	Events           string
	EventInvitations string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSMaxAttempts: getEnvInt("AWS_MAX_ATTEMPTS", 5),
		DynamoTables: DynamoTables{
			Users:            getEnv("DYNAMO_TABLE_USERS", "users"),
			Devices:          getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			Notifications:    getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Items:            getEnv("DYNAMO_TABLE_ITEMS", "items"),
			Reservations:     getEnv("DYNAMO_TABLE_RESERVATIONS", "reservations"),
			FriendRequests:   getEnv("DYNAMO_TABLE_FRIEND_REQUESTS", "friend_requests"),
			Events:           getEnv("DYNAMO_TABLE_EVENTS", "events"),
			EventInvitations: getEnv("DYNAMO_TABLE_EVENT_INVITATIONS", "event_invitations"),
		},
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		ReservationTTL:           getEnvDuration("RESERVATION_TTL", 14*24*time.Hour),
		MaxReservationExtensions: getEnvInt("RESERVATION_MAX_EXTENSIONS", 2),
		Sweeper: SweeperConfig{
			Enabled:              getEnvBool("SWEEP_ENABLED", true),
			HourlyInterval:       getEnvDuration("SWEEP_HOURLY_INTERVAL", time.Hour),
			DailyInterval:        getEnvDuration("SWEEP_DAILY_INTERVAL", 24*time.Hour),
			ReminderHorizon:      getEnvDuration("RESERVATION_REMINDER_HORIZON", 48*time.Hour),
			EventReminderDaysOut: getEnvInt("EVENT_REMINDER_DAYS_AHEAD", 2),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90m", "48h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
