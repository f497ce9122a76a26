package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	require.Equal(t, "8080", cfg.APIPort)
	require.Equal(t, "pgx", cfg.DBDriver)
	require.Equal(t, 72*time.Hour, cfg.JWTExp)
	require.Equal(t, int64(3600), cfg.PasswordResetTokenExpireSeconds)
	require.Equal(t, "submission_events", cfg.SubmissionEventsQueue)
	require.Contains(t, cfg.DBConnStr, "dbname=oj_account")
	require.Equal(t, "log", cfg.PasswordResetSender)
	require.Equal(t, 5, cfg.AuthRateLimitRequests)
	require.Equal(t, time.Minute, cfg.AuthRateLimitWindow)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PASSWORD_RESET_TOKEN_EXPIRE_SECONDS", "600")
	t.Setenv("STATS_CACHE_TTL_SECONDS", "30")
	t.Setenv("DB_HOST", "db.internal")

	cfg := FromEnv()

	require.Equal(t, "9090", cfg.APIPort)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, int64(600), cfg.PasswordResetTokenExpireSeconds)
	require.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	require.Contains(t, cfg.DBConnStr, "host=db.internal")
}

func TestGetEnvAsInt_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	require.Equal(t, 0, FromEnv().RedisDB)
}
