// internal/workers/registration/send-notification/config.go
package sendnotification

import "time"

type Config struct {
	FromEmail      string
	FromName       string
	BackupFromName string
	OperatorEmail  string
	OperatorName   string
	AlertTopicARN  string
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		FromEmail:      "noreply@numour.com",
		FromName:       "Numour Family",
		BackupFromName: "Numour Affiliate System",
		OperatorEmail:  "hanselenterprise@gmail.com",
		OperatorName:   "Numour Admin",
		Timeout:        10 * time.Second,
	}
}
