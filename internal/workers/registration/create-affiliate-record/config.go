// internal/workers/registration/create-affiliate-record/config.go
package createaffiliaterecord

import "time"

type Config struct {
	Timeout  time.Duration
	AuditLog bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		AuditLog: true,
	}
}
