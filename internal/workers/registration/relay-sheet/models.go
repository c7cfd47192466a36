// internal/workers/registration/relay-sheet/models.go
package relaysheet

import (
	"time"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/models"
)

type Status string

const (
	StatusSuccess Status = "Success"
	StatusSkipped Status = "Skipped"
	StatusFailed  Status = "Failed"
)

// Outcome is the result of one relay attempt. It is never retried.
type Outcome struct {
	Status     Status        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	StatusCode int           `json:"statusCode,omitempty"`
	Duration   time.Duration `json:"-"`
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Err describes a Skipped or Failed outcome as a StandardError, nil on
// success.
func (o Outcome) Err() error {
	switch o.Status {
	case StatusSuccess:
		return nil
	case StatusSkipped:
		return apperrors.NewSheetRelaySkippedError()
	default:
		return apperrors.NewSheetRelayFailedError(o.Reason)
	}
}

// ProbeReport is the diagnostic answer of a test submission.
type ProbeReport struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Details *ProbeDetails `json:"details,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type ProbeDetails struct {
	Status         int                        `json:"status"`
	Response       string                     `json:"response"`
	URL            string                     `json:"url"`
	RequestPayload models.NotificationPayload `json:"requestPayload"`
}
