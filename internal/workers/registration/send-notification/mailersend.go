// internal/workers/registration/send-notification/mailersend.go
package sendnotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"affiliate-registration/internal/common/config"
	commonhttp "affiliate-registration/internal/common/http"
	"affiliate-registration/internal/models"
)

type mailerSendAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailerSendRequest struct {
	From    mailerSendAddress   `json:"from"`
	To      []mailerSendAddress `json:"to"`
	Subject string              `json:"subject"`
	Text    string              `json:"text,omitempty"`
	HTML    string              `json:"html,omitempty"`
}

// MailerSendTransport posts to the MailerSend email API.
type MailerSendTransport struct {
	apiKey  string
	baseURL string
	client  *commonhttp.Client
}

func NewMailerSendTransport(cfg config.MailerSendConfig, timeout time.Duration) *MailerSendTransport {
	return &MailerSendTransport{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  commonhttp.NewClient(timeout, ""),
	}
}

func (t *MailerSendTransport) Name() string { return config.TransportMailerSend }

func (t *MailerSendTransport) Send(ctx context.Context, msg *models.EmailMessage) error {
	if t.apiKey == "" {
		return ErrNotConfigured
	}

	req := mailerSendRequest{
		From:    mailerSendAddress{Email: msg.FromEmail, Name: msg.FromName},
		To:      []mailerSendAddress{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}

	resp, err := t.client.PostJSON(ctx, t.baseURL+"/email", req, map[string]string{
		"Authorization":    "Bearer " + t.apiKey,
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("mailersend responded %s: %s", resp.Status, string(resp.Body))
	}
	return nil
}
