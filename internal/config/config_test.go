package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    []int64
		expectError bool
	}{
		{name: "single", input: "100", expected: []int64{100}},
		{name: "list with spaces", input: "100, 200 ,300", expected: []int64{100, 200, 300}},
		{name: "trailing comma", input: "100,", expected: []int64{100}},
		{name: "empty", input: "", expected: nil},
		{name: "not a number", input: "100,abc", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := parseIDs(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

// setRequired sets the minimal environment for Load to succeed
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "test_token")
	t.Setenv("ADMIN_IDS", "100,200")
	t.Setenv("DB_PASSWORD", "test_db_password")
}

func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		// t.Setenv registers restoration of the original value
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	setRequired(t)
	unsetForTest(t, "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "REDIS_ADDR", "REDIS_PASSWORD",
		"REDIS_DB", "SESSION_TTL", "CLEANUP_DELAY", "AUTO_MENU_DELAY", "METRICS_ADDR", "LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test_token", cfg.BotToken)
	assert.Equal(t, []int64{100, 200}, cfg.AdminIDs)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "supportbot", cfg.Database.Name)
	assert.Equal(t, "supportbot", cfg.Database.User)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2*time.Second, cfg.CleanupDelay)
	assert.Equal(t, 3*time.Second, cfg.AutoMenuDelay)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CLEANUP_DELAY", "500ms")
	t.Setenv("AUTO_MENU_DELAY", "0s")
	t.Setenv("METRICS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.CleanupDelay)
	assert.Equal(t, time.Duration(0), cfg.AutoMenuDelay)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{name: "missing bot token", unset: "BOT_TOKEN", wantErr: "BOT_TOKEN"},
		{name: "missing db password", unset: "DB_PASSWORD", wantErr: "DB_PASSWORD"},
		{name: "missing admin ids", unset: "ADMIN_IDS", wantErr: "ADMIN_IDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			unsetForTest(t, tt.unset)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "bad admin id", key: "ADMIN_IDS", value: "admin", wantErr: "ADMIN_IDS"},
		{name: "bad redis db", key: "REDIS_DB", value: "x", wantErr: "REDIS_DB"},
		{name: "bad duration", key: "SESSION_TTL", value: "forever", wantErr: "SESSION_TTL"},
		{name: "negative delay", key: "CLEANUP_DELAY", value: "-1s", wantErr: "CLEANUP_DELAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
