// internal/workers/registration/send-notification/handler.go
package sendnotification

import (
	"context"
	"errors"
	"time"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/common/metrics"
	"affiliate-registration/internal/models"
)

const (
	TaskType = "send-notification"
)

// Alerter raises an out-of-band operator alert for a backup send.
type Alerter interface {
	Alert(ctx context.Context, payload models.NotificationPayload) error
}

type Handler struct {
	config    *Config
	transport Transport
	alerter   Alerter
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler builds a notifier. alerter may be nil.
func NewHandler(config *Config, transport Transport, alerter Alerter, log logger.Logger) *Handler {
	if transport == nil {
		transport = NoopTransport{}
	}
	return &Handler{
		config:    config,
		transport: transport,
		alerter:   alerter,
		logger: log.WithFields(map[string]interface{}{
			"taskType":  TaskType,
			"transport": transport.Name(),
		}),
		now: time.Now,
	}
}

// SendWelcome emails the new affiliate once. Failures are logged and
// returned; they never reach the registrant.
func (h *Handler) SendWelcome(ctx context.Context, name, email string) error {
	data := map[string]interface{}{
		"name": name,
		"year": h.now().Year(),
	}

	return h.send(ctx, TypeWelcome, &models.EmailMessage{
		FromEmail: h.config.FromEmail,
		FromName:  h.config.FromName,
		To:        email,
		ToName:    name,
		Subject:   welcomeSubject,
		Text:      renderText(welcomeText, data),
		HTML:      renderHTML(welcomeHTML, data),
	})
}

// SendBackup emails the full submission to the operator so it can be
// recorded by hand.
func (h *Handler) SendBackup(ctx context.Context, payload models.NotificationPayload) error {
	data := map[string]interface{}{
		"name":      payload.Name,
		"instagram": payload.Instagram,
		"phone":     payload.Phone,
		"email":     payload.Email,
		"address":   payload.Address,
		"timestamp": payload.Timestamp,
	}

	err := h.send(ctx, TypeBackup, &models.EmailMessage{
		FromEmail: h.config.FromEmail,
		FromName:  h.config.BackupFromName,
		To:        h.config.OperatorEmail,
		ToName:    h.config.OperatorName,
		Subject:   backupSubject,
		Text:      renderText(backupText, data),
		HTML:      renderHTML(backupHTML, data),
	})

	if h.alerter != nil {
		if alertErr := h.alerter.Alert(ctx, payload); alertErr != nil {
			metrics.NotificationsTotal.WithLabelValues(TypeAlert, "failed").Inc()
			h.logger.Warn("operator alert failed", map[string]interface{}{
				"error": alertErr,
			})
		} else {
			metrics.NotificationsTotal.WithLabelValues(TypeAlert, "sent").Inc()
		}
	}

	return err
}

func (h *Handler) send(ctx context.Context, kind string, msg *models.EmailMessage) error {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	err := h.transport.Send(ctx, msg)
	switch {
	case err == nil:
		metrics.NotificationsTotal.WithLabelValues(kind, "sent").Inc()
		h.logger.Info("email sent", map[string]interface{}{
			"type": kind,
			"to":   msg.To,
		})
		return nil
	case errors.Is(err, ErrNotConfigured):
		metrics.NotificationsTotal.WithLabelValues(kind, "not_configured").Inc()
		h.logger.Warn("no email transport configured, email not sent", map[string]interface{}{
			"type": kind,
			"to":   msg.To,
		})
		return apperrors.NewNotificationNotConfiguredError(kind, err)
	default:
		metrics.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		h.logger.Error("email send failed", map[string]interface{}{
			"type":  kind,
			"to":    msg.To,
			"error": err,
		})
		return apperrors.NewNotificationSendFailedError(kind, err)
	}
}
