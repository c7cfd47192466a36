package config

import (
	"fmt"
	"strings"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Email    EmailConfig    `mapstructure:"email"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	IdleTimeout     int    `mapstructure:"idle_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
	CORSAllowOrigin string `mapstructure:"cors_allow_origin"`
}

func (h HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	AuditLog    bool   `mapstructure:"audit_log"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Pipeline delivery modes and queue backends.
const (
	ModeSync  = "sync"
	ModeAsync = "async"

	QueueMemory = "memory"
	QueueRedis  = "redis"
)

type PipelineConfig struct {
	Mode            string `mapstructure:"mode"`
	Queue           string `mapstructure:"queue"`
	Workers         int    `mapstructure:"workers"`
	QueueSize       int    `mapstructure:"queue_size"`
	DeliveryTimeout int    `mapstructure:"delivery_timeout"` // milliseconds
	RedisQueueKey   string `mapstructure:"redis_queue_key"`
	PollInterval    int    `mapstructure:"poll_interval"` // milliseconds
}

type SheetsConfig struct {
	WebhookURL         string `mapstructure:"webhook_url"`
	Timeout            int    `mapstructure:"timeout"` // milliseconds
	UserAgent          string `mapstructure:"user_agent"`
	DiagnosticsEnabled bool   `mapstructure:"diagnostics_enabled"`
}

// Email transports.
const (
	TransportNone       = ""
	TransportSMTP       = "smtp"
	TransportSES        = "ses"
	TransportMailerSend = "mailersend"
)

type EmailConfig struct {
	Transport      string           `mapstructure:"transport"`
	FromEmail      string           `mapstructure:"from_email"`
	FromName       string           `mapstructure:"from_name"`
	BackupFromName string           `mapstructure:"backup_from_name"`
	OperatorEmail  string           `mapstructure:"operator_email"`
	Timeout        int              `mapstructure:"timeout"` // milliseconds
	SMTP           SMTPConfig       `mapstructure:"smtp"`
	MailerSend     MailerSendConfig `mapstructure:"mailersend"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type MailerSendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type AWSConfig struct {
	Region        string `mapstructure:"region"`
	AlertTopicARN string `mapstructure:"alert_topic_arn"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SheetsConfigured reports whether the relay has somewhere to post.
func (c *Config) SheetsConfigured() bool {
	return strings.TrimSpace(c.Sheets.WebhookURL) != ""
}

// EmailConfigured reports whether the configured transport has what it needs
// to attempt a send.
func (c *Config) EmailConfigured() bool {
	switch c.Email.Transport {
	case TransportSMTP:
		return c.Email.SMTP.Host != ""
	case TransportSES:
		return c.AWS.Region != ""
	case TransportMailerSend:
		return c.Email.MailerSend.APIKey != ""
	default:
		return false
	}
}
