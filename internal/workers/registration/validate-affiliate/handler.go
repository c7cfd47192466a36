// internal/workers/registration/validate-affiliate/handler.go
package validateaffiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/validation"
	"affiliate-registration/internal/models"
)

const (
	TaskType = "validate-affiliate"
)

var (
	ErrAffiliateValidationFailed = errors.New("AFFILIATE_VALIDATION_FAILED")
)

var defaultSchema = buildSchema(LoadConfig())

type Handler struct {
	schema validation.JSONSchema
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		schema: buildSchema(config),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute validates raw and logs the outcome. The returned error is a
// *ValidationError wrapped with ErrAffiliateValidationFailed, or a schema
// evaluation failure.
func (h *Handler) Execute(_ context.Context, raw interface{}) (*models.RegistrationRequest, error) {
	req, err := validate(raw, h.schema)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			rejected := validation.ValidationResult{Errors: vErr.Errors}
			h.logger.Info("submission rejected", map[string]interface{}{
				"field":  vErr.Field,
				"reason": vErr.Reason,
				"errors": rejected.GetErrorMessages(),
			})
			return nil, fmt.Errorf("%w: %w", ErrAffiliateValidationFailed, vErr)
		}
		h.logger.Error("validation could not run", map[string]interface{}{
			"error": err,
		})
		return nil, err
	}

	h.logger.Debug("submission accepted", map[string]interface{}{
		"email": req.Email,
	})
	return req, nil
}

// Validate checks a decoded JSON body with the default bounds. It has no
// side effects.
func Validate(raw interface{}) (*models.RegistrationRequest, error) {
	return validate(raw, defaultSchema)
}

func validate(raw interface{}, schema validation.JSONSchema) (*models.RegistrationRequest, error) {
	body, ok := raw.(map[string]interface{})
	if !ok || body == nil {
		return nil, &ValidationError{
			Field:  "body",
			Reason: MsgInvalidFormat,
			Errors: []validation.ValidationError{{
				Field:   "body",
				Message: MsgInvalidFormat,
				Code:    "INVALID_TYPE",
			}},
		}
	}

	name, nameOK := stringField(body, "name")
	email, emailOK := stringField(body, "email")
	phone, phoneOK := stringField(body, "phone")
	address, addressOK := stringField(body, "address")
	instagram, instagramOK := stringField(body, "instagram")

	result := &validation.ValidationResult{}
	if !nameOK || utf8.RuneCountInString(name) < minNameLength {
		result.Errors = append(result.Errors, violation("name", MsgNameRequired, nameOK))
	}
	if !emailOK || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		result.Errors = append(result.Errors, violation("email", MsgEmailRequired, emailOK))
	}
	if !phoneOK || utf8.RuneCountInString(phone) < minPhoneLength {
		result.Errors = append(result.Errors, violation("phone", MsgPhoneRequired, phoneOK))
	}
	if !addressOK || utf8.RuneCountInString(address) < minAddressLength {
		result.Errors = append(result.Errors, violation("address", MsgAddressRequired, addressOK))
	}
	if !instagramOK || instagram == "" {
		result.Errors = append(result.Errors, violation("instagram", MsgInstagramMissing, false))
	}

	req := &models.RegistrationRequest{
		Name:      name,
		Instagram: normalizeInstagram(instagram),
		Phone:     phone,
		Email:     email,
		Address:   address,
	}

	bounds, err := validation.Validate(map[string]interface{}{
		"name":      req.Name,
		"email":     req.Email,
		"phone":     req.Phone,
		"address":   req.Address,
		"instagram": req.Instagram,
	}, schema)
	if err != nil {
		return nil, err
	}
	for _, schemaErr := range bounds.Errors {
		if result.HasErrors(schemaErr.Field) {
			continue
		}
		if schemaErr.Code == "MAX_LENGTH_VIOLATION" {
			schemaErr.Message = schemaErr.Field + " is too long"
		}
		result.Errors = append(result.Errors, schemaErr)
	}

	if len(result.Errors) > 0 {
		return nil, &ValidationError{
			Field:  result.Errors[0].Field,
			Reason: result.Errors[0].Message,
			Errors: result.Errors,
		}
	}
	return req, nil
}

// stringField returns the value of key as submitted and whether it was a
// string.
func stringField(body map[string]interface{}, key string) (string, bool) {
	value, ok := body[key].(string)
	return value, ok
}

func violation(field, message string, present bool) validation.ValidationError {
	code := "INVALID_FORMAT"
	if !present {
		code = "REQUIRED_FIELD_MISSING"
	}
	return validation.ValidationError{Field: field, Message: message, Code: code}
}

func normalizeInstagram(handle string) string {
	if handle == "" || strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

func buildSchema(config *Config) validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"name":      {Type: "string", MaxLength: validation.IntPtr(config.NameMaxLength)},
			"email":     {Type: "string", MaxLength: validation.IntPtr(config.EmailMaxLength)},
			"phone":     {Type: "string", MaxLength: validation.IntPtr(config.PhoneMaxLength)},
			"address":   {Type: "string", MaxLength: validation.IntPtr(config.AddressMaxLength)},
			"instagram": {Type: "string", MaxLength: validation.IntPtr(config.InstagramMaxLength)},
		},
	}
}
