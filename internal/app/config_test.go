package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "https://clinic.example.com", cfg.Server.BaseURL)
	require.Equal(t, []string{"https://clinic.example.com"}, cfg.Server.CORS)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "clinic", cfg.Auth.JWT.Issuer)
	require.Equal(t, 45*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 20*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, "root@clinic.example.com", cfg.Auth.Bootstrap.Email)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, "rzp_test_key", cfg.Payment.KeyID)
	require.Equal(t, "INR", cfg.Payment.Currency)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@every 30m", cfg.Maintenance.CleanupSchedule)
	require.Equal(t, 2*time.Hour, cfg.Maintenance.TokenRetention)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MEDREC_AUTH_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 10*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "INR", cfg.Payment.Currency)
	require.Equal(t, "@hourly", cfg.Maintenance.CleanupSchedule)
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = -1
	cfg.Database.Driver = "oracle"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.port")
	require.Contains(t, err.Error(), "auth.jwt.secret")
	require.Contains(t, err.Error(), "database.driver")
}
