package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (r *recordingLogger) Warn(msg string, _ map[string]interface{}) {
	r.warns = append(r.warns, msg)
}

func (r *recordingLogger) Error(msg string, _ map[string]interface{}) {
	r.errors = append(r.errors, msg)
}

// ==========================
// Error Type Tests
// ==========================

func TestStandardError_UnwrapAndCodes(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("create affiliate: %w", NewStorageWriteFailedError(cause))

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, ErrCodeStorageWriteFailed))
	assert.False(t, HasCode(err, ErrCodeValidationFailed))

	stdErr := AsStandardError(err)
	assert.Equal(t, ErrCodeStorageWriteFailed, stdErr.Code)
	assert.Equal(t, "connection reset", stdErr.Details)
	assert.True(t, stdErr.Retryable)
}

func TestAsStandardError_WrapsPlainErrors(t *testing.T) {
	stdErr := AsStandardError(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "Internal server error", stdErr.Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeStorageWriteFailed, http.StatusInternalServerError},
		{ErrCodeStorageUnavailable, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStorageUnavailable))
	assert.Equal(t, "RELAY", GetErrorCategory(ErrCodeSheetRelaySkipped))
	assert.Equal(t, "NOTIFY", GetErrorCategory(ErrCodeNotificationNotConfigured))
	assert.Equal(t, "DELIVERY", GetErrorCategory(ErrCodeQueueEnqueueFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))

	assert.True(t, IsRetryableErrorCode(ErrCodeStorageWriteFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeSheetRelayFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
}

// ==========================
// HTTP Handler Tests
// ==========================

func serveError(t *testing.T, log *recordingLogger, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handler := NewErrorHandler(log)
	router.POST("/api/affiliates", func(c *gin.Context) {
		handler.HandleRequestError(c, err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/affiliates", nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorHandler_Validation(t *testing.T) {
	log := &recordingLogger{}
	err := NewValidationFailedError("Valid email is required", "email").
		WithMetadata(MetadataFieldErrors, []map[string]string{{"field": "email", "message": "Valid email is required"}})

	w, body := serveError(t, log, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid email is required", body["message"])
	assert.Len(t, body["errors"], 1)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestErrorHandler_StorageFailureHidesDetails(t *testing.T) {
	log := &recordingLogger{}
	w, body := serveError(t, log, NewStorageWriteFailedError(stderrors.New("pq: relation does not exist")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, body, "errors")
	assert.Len(t, log.errors, 1)
}
