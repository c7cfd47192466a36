// internal/workers/registration/validate-affiliate/models.go
package validateaffiliate

import (
	"affiliate-registration/internal/common/validation"
)

const (
	MsgInvalidFormat    = "Invalid request format"
	MsgNameRequired     = "Name is required and must be at least 2 characters"
	MsgEmailRequired    = "Valid email is required"
	MsgPhoneRequired    = "Valid phone number is required"
	MsgAddressRequired  = "Valid address is required"
	MsgInstagramMissing = "Instagram handle is required"
)

const (
	minNameLength    = 2
	minPhoneLength   = 10
	minAddressLength = 5
)

// ValidationError reports the first rule a submission broke. Errors holds
// every violation found, first one included.
type ValidationError struct {
	Field  string
	Reason string
	Errors []validation.ValidationError
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
