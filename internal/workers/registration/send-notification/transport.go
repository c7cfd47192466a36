// internal/workers/registration/send-notification/transport.go
package sendnotification

import (
	"context"
	"errors"
	"fmt"

	commonaws "affiliate-registration/internal/common/aws"
	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/models"
)

var ErrNotConfigured = errors.New("NOTIFICATION_NOT_CONFIGURED")

// Transport delivers one rendered email.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *models.EmailMessage) error
}

// NoopTransport stands in when no email provider is configured.
type NoopTransport struct{}

func (NoopTransport) Name() string { return config.TransportNone }

func (NoopTransport) Send(context.Context, *models.EmailMessage) error {
	return ErrNotConfigured
}

// NewTransport builds the transport selected in cfg.Email.Transport.
func NewTransport(ctx context.Context, cfg *config.Config) (Transport, error) {
	switch cfg.Email.Transport {
	case config.TransportSMTP:
		return NewSMTPTransport(cfg.Email.SMTP), nil
	case config.TransportMailerSend:
		return NewMailerSendTransport(cfg.Email.MailerSend, config.GetDuration(cfg.Email.Timeout)), nil
	case config.TransportSES:
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return NewSESTransport(commonaws.NewSESClient(awsCfg)), nil
	case config.TransportNone:
		return NoopTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown email transport: %s", cfg.Email.Transport)
	}
}
