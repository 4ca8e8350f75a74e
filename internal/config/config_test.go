package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "reservations", cfg.DynamoTables.Reservations)
	assert.Equal(t, time.Hour, cfg.Sweeper.HourlyInterval)
	assert.Equal(t, 48*time.Hour, cfg.Sweeper.ReminderHorizon)
	assert.Equal(t, 2, cfg.Sweeper.EventReminderDaysOut)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 5, cfg.AWSMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SWEEP_HOURLY_INTERVAL", "15m")
	t.Setenv("RESERVATION_MAX_EXTENSIONS", "5")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.Sweeper.HourlyInterval)
	assert.Equal(t, 5, cfg.MaxReservationExtensions)
	assert.False(t, cfg.Sweeper.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("RESERVATION_TTL", "soon")
	assert.Equal(t, 14*24*time.Hour, Load().ReservationTTL)
}
