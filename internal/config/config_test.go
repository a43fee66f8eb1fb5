package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "auditrail", cfg.AppName)
	assert.Equal(t, DriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.False(t, cfg.AdminAuthEnabled())
	assert.Empty(t, cfg.Export.Schedule, "exporter disabled by default")
	assert.NotEmpty(t, cfg.Database.URL, "postgres URL assembled from parts")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestLoadRequiresJWTSecretWithAdminKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "some-key")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAdminAuthEnabled(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "some-key")
	t.Setenv("JWT_SECRET", "signing-key")
	t.Setenv("ADMIN_SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AdminAuthEnabled())
	assert.Equal(t, 30*time.Minute, cfg.Admin.SessionTTL)
}

func TestDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Context.RequestTimeout)
}

func TestExplicitDatabaseURLWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/records?sslmode=require")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/records?sslmode=require", cfg.Database.URL)
}
