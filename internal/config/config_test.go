package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDSNAndSecret(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/planner")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/planner")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8085", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 30, cfg.AuthRateLimit)
	assert.False(t, cfg.IsProduction)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.test")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("LOGIN_FIELD", "email")
	t.Setenv("BOOKING_IDEMPOTENCY", "true")
	t.Setenv("SESSION_FILE", "/tmp/session.json")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test", cfg.APIBaseURL)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, LoginByEmail, cfg.LoginField)
	assert.True(t, cfg.BookingIdempotency)
	assert.Equal(t, "/tmp/session.json", cfg.SessionFile)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
}

func TestLoadClientRejectsUnknownLoginField(t *testing.T) {
	t.Setenv("LOGIN_FIELD", "phone")
	_, err := LoadClient()
	assert.ErrorContains(t, err, "LOGIN_FIELD")
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("PLANNER_TEST_INT", "abc")
	_, err := getEnvAsInt("PLANNER_TEST_INT", 3)
	assert.Error(t, err)

	t.Setenv("PLANNER_TEST_INT", "")
	v, err := getEnvAsInt("PLANNER_TEST_INT", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
