// internal/workers/registration/validate-affiliate/handler_test.go
package validateaffiliate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"affiliate-registration/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() map[string]interface{} {
	return map[string]interface{}{
		"name":      "Asha Rao",
		"email":     "asha@example.com",
		"phone":     "9876543210",
		"address":   "12 MG Road, Pune",
		"instagram": "asha.glow",
	}
}

func withField(key string, value interface{}) map[string]interface{} {
	input := createTestInput()
	if value == nil {
		delete(input, key)
		return input
	}
	input[key] = value
	return input
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %T", err)
	return vErr
}

// ==========================
// Validate
// ==========================

func TestValidate_Accepts(t *testing.T) {
	req, err := Validate(createTestInput())
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", req.Name)
	assert.Equal(t, "asha@example.com", req.Email)
	assert.Equal(t, "9876543210", req.Phone)
	assert.Equal(t, "12 MG Road, Pune", req.Address)
	assert.Equal(t, "@asha.glow", req.Instagram)
}

func TestValidate_InstagramNotDoublePrefixed(t *testing.T) {
	req, err := Validate(withField("instagram", "@asha.glow"))
	require.NoError(t, err)
	assert.Equal(t, "@asha.glow", req.Instagram)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		field  string
		reason string
	}{
		{"not an object", []interface{}{"Asha"}, "body", MsgInvalidFormat},
		{"string body", "name=Asha", "body", MsgInvalidFormat},
		{"nil body", nil, "body", MsgInvalidFormat},
		{"single character name", withField("name", "A"), "name", MsgNameRequired},
		{"missing name", withField("name", nil), "name", MsgNameRequired},
		{"numeric name", withField("name", 42.0), "name", MsgNameRequired},
		{"single space name", withField("name", " "), "name", MsgNameRequired},
		{"email without at", withField("email", "asha.example.com"), "email", MsgEmailRequired},
		{"email without dot", withField("email", "asha@example"), "email", MsgEmailRequired},
		{"short phone", withField("phone", "12345"), "phone", MsgPhoneRequired},
		{"nine digit phone", withField("phone", "123456789"), "phone", MsgPhoneRequired},
		{"short address", withField("address", "Pune"), "address", MsgAddressRequired},
		{"missing instagram", withField("instagram", nil), "instagram", MsgInstagramMissing},
		{"empty instagram", withField("instagram", ""), "instagram", MsgInstagramMissing},
		{"long name", withField("name", strings.Repeat("a", 101)), "name", "name is too long"},
		{"long address", withField("address", strings.Repeat("b", 501)), "address", "address is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Validate(tt.input)
			assert.Nil(t, req)

			vErr := requireValidationError(t, err)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, tt.reason, vErr.Reason)
			require.NotEmpty(t, vErr.Errors)
			assert.Equal(t, tt.field, vErr.Errors[0].Field)
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	input := createTestInput()
	input["name"] = "A"
	input["phone"] = "123"

	_, err := Validate(input)
	vErr := requireValidationError(t, err)
	assert.Equal(t, "name", vErr.Field)
	assert.Equal(t, MsgNameRequired, vErr.Reason)

	require.Len(t, vErr.Errors, 2)
	assert.Equal(t, "phone", vErr.Errors[1].Field)
	assert.Equal(t, MsgPhoneRequired, vErr.Errors[1].Message)
}

func TestValidate_CountsCodePoints(t *testing.T) {
	// Two code points, four bytes.
	req, err := Validate(withField("name", "Éa"))
	require.NoError(t, err)
	assert.Equal(t, "Éa", req.Name)

	_, err = Validate(withField("name", "É"))
	vErr := requireValidationError(t, err)
	assert.Equal(t, "name", vErr.Field)
}

func TestValidate_KeepsValuesVerbatim(t *testing.T) {
	input := createTestInput()
	input["name"] = " J"
	input["address"] = "  12 MG Road  "

	req, err := Validate(input)
	require.NoError(t, err)
	assert.Equal(t, " J", req.Name)
	assert.Equal(t, "  12 MG Road  ", req.Address)

	// Whitespace counts toward the minimum length.
	_, err = Validate(withField("phone", "  12345678"))
	assert.NoError(t, err)
}

func TestValidate_IgnoresUnknownFields(t *testing.T) {
	input := createTestInput()
	input["referrer"] = "newsletter"

	_, err := Validate(input)
	assert.NoError(t, err)
}

// ==========================
// Handler
// ==========================

func TestHandler_Execute(t *testing.T) {
	cfg := LoadConfig()
	cfg.NameMaxLength = 5
	handler := NewHandler(cfg, logger.NewTestLogger(t))

	req, err := handler.Execute(context.Background(), withField("name", "Asha"))
	require.NoError(t, err)
	assert.Equal(t, "Asha", req.Name)

	_, err = handler.Execute(context.Background(), createTestInput())
	assert.True(t, errors.Is(err, ErrAffiliateValidationFailed))

	vErr := requireValidationError(t, err)
	assert.Equal(t, "name", vErr.Field)
	assert.Equal(t, "MAX_LENGTH_VIOLATION", vErr.Errors[0].Code)
}
