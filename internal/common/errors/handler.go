package errors

import (
	"github.com/gin-gonic/gin"
)

// MetadataFieldErrors is the metadata key holding field-level validation
// errors; when present they are rendered as the response's "errors" array.
const MetadataFieldErrors = "errors"

// ErrorHandler turns pipeline errors into HTTP error responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRequestError writes the JSON error body for err and aborts the
// request. Validation failures expose their message and field errors; any
// other failure answers with a generic message and is logged with details.
func (h *ErrorHandler) HandleRequestError(c *gin.Context, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)

	body := gin.H{"message": stdErr.Message}
	if stdErr.Code == ErrCodeValidationFailed {
		if fieldErrors, ok := stdErr.Metadata[MetadataFieldErrors]; ok {
			body["errors"] = fieldErrors
		}
	} else {
		body["message"] = "Internal server error"
	}

	c.AbortWithStatusJSON(status, body)
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        c.Request.Method,
		"path":          c.FullPath(),
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if requestID, ok := c.Get("requestId"); ok {
		fields["requestId"] = requestID
	}

	if status < 500 {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}
