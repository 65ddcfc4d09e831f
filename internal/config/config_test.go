package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("BACKEND_URL", "http://api.masjid.test/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.masjid.test", cfg.Backend.URL)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.InDelta(t, -6.2088, cfg.Prayer.Latitude, 0.0001)
	assert.Equal(t, 20, cfg.Prayer.Method)
	assert.Equal(t, "5 0 * * *", cfg.Prayer.Schedule)
	assert.Equal(t, "masjidku.sqlite", cfg.Prayer.CachePath)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("MOSQUE_LATITUDE", "1.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 1.5, cfg.Prayer.Latitude)
}

func TestLoad_InvalidCoordinate(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("MOSQUE_LONGITUDE", "east")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadClient_NoSecretNeeded(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("BACKEND_URL", "https://api.masjid.test/")
	t.Setenv("PRAYER_METHOD", "3")

	backend, prayer, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://api.masjid.test", backend.URL)
	assert.Equal(t, 3, prayer.Method)
}
