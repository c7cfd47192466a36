// internal/workers/registration/index-affiliate/config.go
package indexaffiliate

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Index:   "affiliates",
		Timeout: 5 * time.Second,
	}
}
