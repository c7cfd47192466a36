package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// applies environment overrides and defaults, and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v, env)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return finish(v, env)
}

func finish(v *viper.Viper, env string) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig fills settings that are still empty from the flat
// environment names the form deployment used.
func overrideEmptyConfig(cfg *Config) {
	setString := func(dst *string, envKey string) {
		if *dst == "" {
			if val := os.Getenv(envKey); val != "" {
				*dst = val
			}
		}
	}

	setString(&cfg.Sheets.WebhookURL, "GOOGLE_WEBHOOK_URL")

	setString(&cfg.Email.SMTP.Host, "SMTP_HOST")
	setString(&cfg.Email.SMTP.Username, "SMTP_USER")
	setString(&cfg.Email.SMTP.Password, "SMTP_PASS")
	setString(&cfg.Email.FromEmail, "SMTP_FROM_EMAIL")
	setString(&cfg.Email.MailerSend.APIKey, "MAILERSEND_API_KEY")
	setString(&cfg.Email.OperatorEmail, "BACKUP_EMAIL")

	if cfg.Email.SMTP.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
			cfg.Email.SMTP.Port = port
		}
	}

	// Infer the transport when only credentials were provided.
	if cfg.Email.Transport == TransportNone {
		switch {
		case cfg.Email.MailerSend.APIKey != "":
			cfg.Email.Transport = TransportMailerSend
		case cfg.Email.SMTP.Host != "":
			cfg.Email.Transport = TransportSMTP
		}
	}

	setString(&cfg.Database.Postgres.User, "DB_USER")
	setString(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Database.Redis.Address, "REDIS_ADDRESS")

	if cfg.HTTP.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			cfg.HTTP.Port = port
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "affiliate-registration"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10000
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 45000
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60000
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30000
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 64 << 10
	}
	if cfg.HTTP.CORSAllowOrigin == "" {
		cfg.HTTP.CORSAllowOrigin = "*"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Storage.Timeout == 0 {
		cfg.Storage.Timeout = 5000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Pipeline.Mode == "" {
		cfg.Pipeline.Mode = ModeSync
	}
	if cfg.Pipeline.Queue == "" {
		cfg.Pipeline.Queue = QueueMemory
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.QueueSize == 0 {
		cfg.Pipeline.QueueSize = 256
	}
	if cfg.Pipeline.DeliveryTimeout == 0 {
		cfg.Pipeline.DeliveryTimeout = 30000
	}
	if cfg.Pipeline.RedisQueueKey == "" {
		cfg.Pipeline.RedisQueueKey = "affiliates:delivery"
	}
	if cfg.Pipeline.PollInterval == 0 {
		cfg.Pipeline.PollInterval = 1000
	}

	if cfg.Sheets.Timeout == 0 {
		cfg.Sheets.Timeout = 8000
	}
	if cfg.Sheets.UserAgent == "" {
		cfg.Sheets.UserAgent = "Numour-Affiliate-App"
	}

	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "noreply@numour.com"
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Numour Family"
	}
	if cfg.Email.BackupFromName == "" {
		cfg.Email.BackupFromName = "Numour Affiliate System"
	}
	if cfg.Email.OperatorEmail == "" {
		cfg.Email.OperatorEmail = "hanselenterprise@gmail.com"
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = 10000
	}
	if cfg.Email.SMTP.Port == 0 {
		cfg.Email.SMTP.Port = 587
	}
	if cfg.Email.MailerSend.BaseURL == "" {
		cfg.Email.MailerSend.BaseURL = "https://api.mailersend.com/v1"
	}

	if cfg.Archive.Index == "" {
		cfg.Archive.Index = "affiliates"
	}
	if cfg.Archive.Timeout == 0 {
		cfg.Archive.Timeout = 5000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig checks enum values and what each enabled backend needs.
// Missing webhook or email settings are valid: the relay reports Skipped and
// the notifier reports not-configured.
func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.Storage.Driver)
	}

	switch cfg.Pipeline.Mode {
	case ModeSync, ModeAsync:
	default:
		return fmt.Errorf("pipeline.mode must be %q or %q, got %q", ModeSync, ModeAsync, cfg.Pipeline.Mode)
	}

	switch cfg.Pipeline.Queue {
	case QueueMemory:
	case QueueRedis:
		if cfg.Pipeline.Mode == ModeAsync && cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis queue")
		}
	default:
		return fmt.Errorf("pipeline.queue must be %q or %q, got %q", QueueMemory, QueueRedis, cfg.Pipeline.Queue)
	}

	if cfg.Pipeline.Workers < 0 || cfg.Pipeline.QueueSize < 0 {
		return fmt.Errorf("pipeline.workers and pipeline.queue_size must not be negative")
	}

	switch cfg.Email.Transport {
	case TransportNone, TransportSMTP, TransportMailerSend:
	case TransportSES:
		if cfg.AWS.Region == "" {
			return fmt.Errorf("aws.region is required for the ses transport")
		}
	default:
		return fmt.Errorf("email.transport %q is not supported", cfg.Email.Transport)
	}

	if cfg.AWS.AlertTopicARN != "" && cfg.AWS.Region == "" {
		return fmt.Errorf("aws.region is required when aws.alert_topic_arn is set")
	}

	if cfg.Archive.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when archive is enabled")
	}

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
