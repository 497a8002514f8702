package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_URL", "postgres://localhost/motoshop")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, 24, cfg.JWT.ExpiryHours)
	assert.Equal(t, TransportOutbox, cfg.Notify.Transport)
	assert.Equal(t, "@every 30s", cfg.Notify.RelaySchedule)
	assert.False(t, cfg.Pricing.StrictProducts)
	assert.False(t, cfg.Twilio.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "file:test.db")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("NOTIFY_TRANSPORT", "REDIS")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "3")
	t.Setenv("REDIS_STREAM", "events")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("PRICING_STRICT_PRODUCTS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 90*time.Second, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, TransportRedis, cfg.Notify.Transport)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, "events", cfg.Redis.Stream)
	assert.True(t, cfg.Twilio.Enabled())
	assert.True(t, cfg.Pricing.StrictProducts)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_URL", "x")
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("NOTIFY_TRANSPORT", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), `unsupported DB_DRIVER "oracle"`)
	assert.Contains(t, err.Error(), `unsupported NOTIFY_TRANSPORT "carrier-pigeon"`)
}
