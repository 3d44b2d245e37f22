package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.UsersBackend)
	assert.Equal(t, 5, cfg.UsersDefaultPageSize)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "c")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			SessionSecret:        "s",
			CSRFSecret:           "c",
			UsersBackend:         BackendREST,
			UsersAPIURL:          "http://users.internal",
			UsersDefaultPageSize: 10,
			AppTimezone:          "Europe/Berlin",
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())

	cfg = base()
	cfg.UsersBackend = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown USERS_BACKEND")

	cfg = base()
	cfg.UsersAPIURL = ""
	assert.ErrorContains(t, cfg.Validate(), "USERS_API_URL")

	cfg = base()
	cfg.UsersDefaultPageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AppTimezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "APP_TIMEZONE")

	cfg = base()
	cfg.UsersBackend = BackendMemory
	cfg.AdminPasswordHash = "$2a$10$hash"
	assert.ErrorContains(t, cfg.Validate(), "API_TOKEN")
	cfg.APIToken = "api-token"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AuthEnabled())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(&Config{LogLevel: "debug"}).String())
	assert.Equal(t, "WARN", parseLevel(&Config{LogLevel: "WARNING"}).String())
	assert.Equal(t, "ERROR", parseLevel(&Config{LogLevel: "error"}).String())
	assert.Equal(t, "INFO", parseLevel(&Config{LogLevel: "verbose"}).String())
	assert.Equal(t, "INFO", parseLevel(nil).String())
}
