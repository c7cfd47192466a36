// internal/workers/registration/relay-sheet/config.go
package relaysheet

import "time"

type Config struct {
	WebhookURL string
	Timeout    time.Duration
	UserAgent  string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   8 * time.Second,
		UserAgent: "Numour-Affiliate-App",
	}
}
