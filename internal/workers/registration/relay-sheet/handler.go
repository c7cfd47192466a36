// internal/workers/registration/relay-sheet/handler.go
package relaysheet

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	commonhttp "affiliate-registration/internal/common/http"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/metrics"
	"affiliate-registration/internal/models"
)

const (
	TaskType = "relay-sheet"
)

const (
	MsgProbeCompleted     = "Test completed"
	MsgProbeFailed        = "Error testing Google Sheets integration"
	MsgProbeNotConfigured = "Google Webhook URL not configured in environment variables"
)

var (
	ErrWebhookNotConfigured = errors.New("WEBHOOK_NOT_CONFIGURED")
	ErrRelayFailed          = errors.New("SHEET_RELAY_FAILED")
)

var lastPathSegment = regexp.MustCompile(`/[^/]+$`)

type Handler struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: commonhttp.NewClient(config.Timeout, config.UserAgent),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Configured() bool {
	return strings.TrimSpace(h.config.WebhookURL) != ""
}

// Relay posts payload to the webhook exactly once.
func (h *Handler) Relay(ctx context.Context, payload models.NotificationPayload) Outcome {
	if !h.Configured() {
		h.logger.Info("no webhook configured, skipping relay", nil)
		metrics.SheetRelayTotal.WithLabelValues(string(StatusSkipped)).Inc()
		return Outcome{Status: StatusSkipped, Reason: "webhook not configured"}
	}

	start := h.now()
	resp, err := h.client.PostJSON(ctx, h.config.WebhookURL, payload, nil)
	duration := time.Since(start)
	metrics.SheetRelayDuration.Observe(duration.Seconds())

	outcome := Outcome{Status: StatusSuccess, Duration: duration}
	switch {
	case err != nil:
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
	case !resp.OK():
		outcome.Status = StatusFailed
		outcome.StatusCode = resp.StatusCode
		outcome.Reason = fmt.Sprintf("webhook responded %s: %s", resp.Status, truncate(string(resp.Body), 256))
	default:
		outcome.StatusCode = resp.StatusCode
	}

	metrics.SheetRelayTotal.WithLabelValues(string(outcome.Status)).Inc()

	fields := map[string]interface{}{
		"status":     outcome.Status,
		"statusCode": outcome.StatusCode,
		"durationMs": duration.Milliseconds(),
		"email":      payload.Email,
	}
	if outcome.Succeeded() {
		h.logger.Info("relayed to spreadsheet", fields)
	} else {
		fields["reason"] = outcome.Reason
		h.logger.Warn("spreadsheet relay failed", fields)
	}
	return outcome
}

// Probe sends a fixed test entry and reports what the webhook answered.
func (h *Handler) Probe(ctx context.Context) (*ProbeReport, error) {
	if !h.Configured() {
		return &ProbeReport{Success: false, Message: MsgProbeNotConfigured}, ErrWebhookNotConfigured
	}

	payload := TestPayload(h.now())
	resp, err := h.client.PostJSON(ctx, h.config.WebhookURL, payload, nil)
	if err != nil {
		h.logger.Error("probe request failed", map[string]interface{}{
			"error": err,
			"url":   MaskURL(h.config.WebhookURL),
		})
		return &ProbeReport{
			Success: false,
			Message: MsgProbeFailed,
			Error:   err.Error(),
		}, fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}

	h.logger.Info("probe completed", map[string]interface{}{
		"statusCode": resp.StatusCode,
		"url":        MaskURL(h.config.WebhookURL),
	})

	return &ProbeReport{
		Success: resp.OK(),
		Message: MsgProbeCompleted,
		Details: &ProbeDetails{
			Status:         resp.StatusCode,
			Response:       string(resp.Body),
			URL:            MaskURL(h.config.WebhookURL),
			RequestPayload: payload,
		},
	}, nil
}

// TestPayload is the fixed diagnostic entry. Spreadsheet owners can filter
// rows named TEST ENTRY.
func TestPayload(now time.Time) models.NotificationPayload {
	return models.NotificationPayload{
		Name:      "TEST ENTRY",
		Instagram: "@testaccount",
		Phone:     "1234567890",
		Email:     "test@example.com",
		Address:   "Test Address, Test City",
		Timestamp: models.FormatTimestamp(now),
	}
}

// MaskURL hides the last path segment, which carries the deployment id.
func MaskURL(url string) string {
	return lastPathSegment.ReplaceAllString(url, "/***")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
