package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "file:test.db")
	t.Setenv("INITIAL_ADMIN_PASSWORD", "mettwurst")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "Groß", cfg.InitialAdmin.Name)
	assert.True(t, cfg.Auth.AutoRegister)
	assert.Equal(t, "email_queue", cfg.RabbitMQ.Queue)
	assert.Equal(t, "Europe/Berlin", cfg.App.Timezone)
	assert.Equal(t, 300, cfg.Redis.ListTTL)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout())
	assert.Equal(t, 20*time.Second, cfg.TransactionTimeout())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("AUTH_AUTO_REGISTER", "false")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DATABASE_TRANSACTION_TIMEOUT", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Auth.AutoRegister)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.TransactionTimeout())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	// t.Setenv 负责在测试结束后恢复原值
	t.Setenv("DATABASE_DSN", "unused")
	require.NoError(t, os.Unsetenv("DATABASE_DSN"))
	t.Setenv("INITIAL_ADMIN_PASSWORD", "mettwurst")
	t.Setenv("JWT_SECRET", "secret")

	_, err := LoadConfig()
	assert.Error(t, err)
}
