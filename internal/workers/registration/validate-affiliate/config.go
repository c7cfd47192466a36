// internal/workers/registration/validate-affiliate/config.go
package validateaffiliate

// Config holds the upper bounds enforced after the ordered rules. Minimums
// are fixed by the registration form and are not configurable.
type Config struct {
	NameMaxLength      int
	EmailMaxLength     int
	PhoneMaxLength     int
	AddressMaxLength   int
	InstagramMaxLength int
}

func LoadConfig() *Config {
	return &Config{
		NameMaxLength:      100,
		EmailMaxLength:     254,
		PhoneMaxLength:     32,
		AddressMaxLength:   500,
		InstagramMaxLength: 64,
	}
}
