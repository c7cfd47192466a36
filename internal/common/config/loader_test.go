package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearFormEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_WEBHOOK_URL", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS",
		"SMTP_FROM_EMAIL", "MAILERSEND_API_KEY", "BACKUP_EMAIL", "DB_USER",
		"DB_PASSWORD", "REDIS_ADDRESS", "PORT", "APP_ENVIRONMENT",
	} {
		t.Setenv(key, "")
	}
}

// ==========================
// Loading Tests
// ==========================

func TestLoadFromFile_Defaults(t *testing.T) {
	clearFormEnv(t)
	path := writeConfigFile(t, "app:\n  name: affiliates\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "affiliates", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, ModeSync, cfg.Pipeline.Mode)
	assert.Equal(t, QueueMemory, cfg.Pipeline.Queue)
	assert.Equal(t, 8*time.Second, GetDuration(cfg.Sheets.Timeout))
	assert.Equal(t, 587, cfg.Email.SMTP.Port)
	assert.Equal(t, "noreply@numour.com", cfg.Email.FromEmail)
	assert.Equal(t, "hanselenterprise@gmail.com", cfg.Email.OperatorEmail)
	assert.Equal(t, TransportNone, cfg.Email.Transport)
	assert.False(t, cfg.SheetsConfigured())
	assert.False(t, cfg.EmailConfigured())
}

func TestLoadFromFile_EnvironmentOverrides(t *testing.T) {
	clearFormEnv(t)
	t.Setenv("GOOGLE_WEBHOOK_URL", "https://script.google.com/macros/s/abc/exec")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("BACKUP_EMAIL", "ops@example.com")
	t.Setenv("PORT", "9090")

	path := writeConfigFile(t, "logging:\n  level: debug\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", cfg.Sheets.WebhookURL)
	assert.Equal(t, TransportSMTP, cfg.Email.Transport)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	assert.Equal(t, 2525, cfg.Email.SMTP.Port)
	assert.Equal(t, "mailer", cfg.Email.SMTP.Username)
	assert.Equal(t, "ops@example.com", cfg.Email.OperatorEmail)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.SheetsConfigured())
	assert.True(t, cfg.EmailConfigured())
}

func TestLoadFromFile_RepositoryConfig(t *testing.T) {
	const path = "../../../configs/config.yaml"

	t.Run("env fallbacks", func(t *testing.T) {
		clearFormEnv(t)
		t.Setenv("PORT", "9090")
		t.Setenv("SMTP_PORT", "2525")

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.HTTP.Port)
		assert.Equal(t, 2525, cfg.Email.SMTP.Port)
	})

	t.Run("defaults", func(t *testing.T) {
		clearFormEnv(t)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.HTTP.Port)
		assert.Equal(t, 587, cfg.Email.SMTP.Port)
		assert.Equal(t, "affiliates", cfg.Archive.Index)
		assert.Equal(t, 5*time.Second, GetDuration(cfg.Archive.Timeout))
		assert.Equal(t, 5*time.Second, GetDuration(cfg.Storage.Timeout))
	})
}

func TestLoadFromFile_ArchiveTimeout(t *testing.T) {
	clearFormEnv(t)

	cfg, err := LoadFromFile(writeConfigFile(t, "storage:\n  timeout: 5000\narchive:\n  timeout: 1500\n"))
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, GetDuration(cfg.Archive.Timeout))
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Storage.Timeout))
}

func TestLoadFromFile_MailerSendInferred(t *testing.T) {
	clearFormEnv(t)
	t.Setenv("MAILERSEND_API_KEY", "mlsn.key")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := LoadFromFile(writeConfigFile(t, "app:\n  version: 2.0.0\n"))
	require.NoError(t, err)

	assert.Equal(t, TransportMailerSend, cfg.Email.Transport)
	assert.Equal(t, "https://api.mailersend.com/v1", cfg.Email.MailerSend.BaseURL)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	clearFormEnv(t)
	t.Setenv("TEST_SHEET_ID", "sheet-123")

	cfg, err := LoadFromFile(writeConfigFile(t, "sheets:\n  webhook_url: https://hooks.example.com/${TEST_SHEET_ID}\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/sheet-123", cfg.Sheets.WebhookURL)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// ==========================
// Validation Tests
// ==========================

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown storage driver",
			yaml:    "storage:\n  driver: mongo\n",
			wantErr: "storage.driver",
		},
		{
			name:    "postgres without host",
			yaml:    "storage:\n  driver: postgres\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "unknown pipeline mode",
			yaml:    "pipeline:\n  mode: eventual\n",
			wantErr: "pipeline.mode",
		},
		{
			name:    "redis queue without address",
			yaml:    "pipeline:\n  mode: async\n  queue: redis\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "ses without region",
			yaml:    "email:\n  transport: ses\n",
			wantErr: "aws.region is required",
		},
		{
			name:    "unsupported transport",
			yaml:    "email:\n  transport: pigeon\n",
			wantErr: "email.transport",
		},
		{
			name:    "archive without elasticsearch",
			yaml:    "archive:\n  enabled: true\n",
			wantErr: "database.elasticsearch.addresses",
		},
		{
			name: "postgres complete",
			yaml: "storage:\n  driver: postgres\ndatabase:\n  postgres:\n    host: db\n    database: affiliates\n    user: app\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearFormEnv(t)
			cfg, err := LoadFromFile(writeConfigFile(t, tt.yaml))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Contains(t, cfg.Database.Postgres.GetDSN(), "port=5432")
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
