package iam_test

import (
	"os"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-iam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"IAM_LOGIN_MODE", "IAM_JWT_KEY", "IAM_MAGIC_LINK_KEY", "IAM_LOGIN_DURATION",
		"IAM_MAGIC_LINK_DURATION", "IAM_MAGIC_LINK_BASE_URL", "IAM_VERIFY_URL",
		"IAM_STRICT_SESSIONS", "IAM_OPERATION_TIMEOUT", "IAM_PASSWORD_COST",
		"DATABASE_DRIVER", "DATABASE_URL", "AUTO_MIGRATE", "REDIS_ADDR",
		"LOG_FORMAT", "LOG_LEVEL", "TEMPLATES_DIR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := iam.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, iam.DefaultConfig(), cfg)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("IAM_LOGIN_MODE", "password")
	t.Setenv("IAM_LOGIN_DURATION", "1h")
	t.Setenv("IAM_STRICT_SESSIONS", "true")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := iam.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, iam.LoginModePassword, cfg.LoginMode)
	assert.Equal(t, time.Hour, cfg.LoginDuration)
	assert.True(t, cfg.StrictSessions)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 15*time.Minute, cfg.MagicLinkDuration)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*iam.Config)
		field  string
	}{
		{name: "unknown mode", mutate: func(c *iam.Config) { c.LoginMode = "sso" }, field: "IAM_LOGIN_MODE"},
		{name: "empty jwt key", mutate: func(c *iam.Config) { c.JWTKey = "" }, field: "IAM_JWT_KEY"},
		{name: "empty magic key", mutate: func(c *iam.Config) { c.MagicLinkKey = "" }, field: "IAM_MAGIC_LINK_KEY"},
		{name: "zero login duration", mutate: func(c *iam.Config) { c.LoginDuration = 0 }, field: "IAM_LOGIN_DURATION"},
		{name: "negative link duration", mutate: func(c *iam.Config) { c.MagicLinkDuration = -time.Second }, field: "IAM_MAGIC_LINK_DURATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := iam.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, "INVALID_CONFIG", richErr.TextCode)
			assert.Equal(t, tt.field, richErr.Metadata["field"])
		})
	}

	assert.NoError(t, iam.DefaultConfig().Validate())
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	t.Setenv("IAM_LOGIN_MODE", "sso")

	_, err := iam.LoadConfig()
	require.Error(t, err)
}
