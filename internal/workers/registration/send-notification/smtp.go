// internal/workers/registration/send-notification/smtp.go
package sendnotification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/models"

	"github.com/google/uuid"
)

type SMTPTransport struct {
	config config.SMTPConfig
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{config: cfg}
}

func (t *SMTPTransport) Name() string { return config.TransportSMTP }

func (t *SMTPTransport) Send(ctx context.Context, msg *models.EmailMessage) error {
	if t.config.Host == "" {
		return ErrNotConfigured
	}

	message, err := buildMIMEMessage(msg, time.Now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := net.JoinHostPort(t.config.Host, strconv.Itoa(t.config.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	// Upgrade whenever the server offers STARTTLS; use_tls makes it mandatory.
	if offered, _ := client.Extension("STARTTLS"); t.config.UseTLS || offered {
		tlsConfig := &tls.Config{
			ServerName: t.config.Host,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if t.config.Username != "" && t.config.Password != "" {
		auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(msg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// buildMIMEMessage renders a multipart/alternative message with a text and
// an HTML part, both quoted-printable.
func buildMIMEMessage(msg *models.EmailMessage, now time.Time) ([]byte, error) {
	boundary := "affiliate-" + uuid.NewString()
	from := mail.Address{Name: msg.FromName, Address: msg.FromEmail}
	to := mail.Address{Name: msg.ToName, Address: msg.To}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", to.String()))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	builder.WriteString(fmt.Sprintf("Date: %s\r\n", now.Format(time.RFC1123Z)))
	builder.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.NewString(), domainOf(msg.FromEmail)))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
	builder.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, part := range parts {
		if part.body == "" {
			continue
		}
		encoded, err := quotedPrintable(part.body)
		if err != nil {
			return nil, err
		}
		builder.WriteString("--" + boundary + "\r\n")
		builder.WriteString("Content-Type: " + part.contentType + "\r\n")
		builder.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		builder.WriteString(encoded)
		builder.WriteString("\r\n")
	}
	builder.WriteString("--" + boundary + "--\r\n")

	return []byte(builder.String()), nil
}

func quotedPrintable(body string) (string, error) {
	var buf bytes.Buffer
	w := quotedprintable.NewWriter(&buf)
	if _, err := w.Write([]byte(body)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}
