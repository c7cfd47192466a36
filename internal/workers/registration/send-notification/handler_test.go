// internal/workers/registration/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "affiliate-registration/internal/common/errors"
	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []*models.EmailMessage
	err  error
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, msg *models.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

// ==========================
// Test Helper Functions
// ==========================

func createTestPayload() models.NotificationPayload {
	return models.NotificationPayload{
		Name:      "Asha <Rao>",
		Instagram: "@asha.glow",
		Phone:     "9876543210",
		Email:     "asha@example.com",
		Address:   "12 MG Road & Sons, Pune",
		Timestamp: "2024-03-09T08:35:07.042Z",
	}
}

func newTestHandler(t *testing.T, transport Transport, alerter Alerter) *Handler {
	h := NewHandler(LoadConfig(), transport, alerter, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }
	return h
}

// ==========================
// Welcome
// ==========================

func TestSendWelcome(t *testing.T) {
	transport := &recordingTransport{}
	handler := newTestHandler(t, transport, nil)

	require.NoError(t, handler.SendWelcome(context.Background(), "Asha Rao", "asha@example.com"))
	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Asha Rao", msg.ToName)
	assert.Equal(t, "noreply@numour.com", msg.FromEmail)
	assert.Equal(t, "Numour Family", msg.FromName)
	assert.Equal(t, "Welcome to the Numour Family! 💜", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Asha Rao,")
	assert.Contains(t, msg.HTML, "Hi Asha Rao,")
	assert.Contains(t, msg.HTML, "© 2024 Numour")
}

func TestSendWelcome_TransportFailure(t *testing.T) {
	transport := &recordingTransport{err: errors.New("535 authentication failed")}
	handler := newTestHandler(t, transport, nil)

	err := handler.SendWelcome(context.Background(), "Asha Rao", "asha@example.com")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
	assert.Len(t, transport.sent, 1)
}

func TestSendWelcome_NotConfigured(t *testing.T) {
	handler := newTestHandler(t, nil, nil)

	err := handler.SendWelcome(context.Background(), "Asha Rao", "asha@example.com")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationNotConfigured))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// ==========================
// Backup
// ==========================

func TestSendBackup(t *testing.T) {
	transport := &recordingTransport{}
	handler := newTestHandler(t, transport, nil)

	require.NoError(t, handler.SendBackup(context.Background(), createTestPayload()))
	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, "hanselenterprise@gmail.com", msg.To)
	assert.Equal(t, "Numour Affiliate System", msg.FromName)
	assert.Equal(t, "🚨 Backup: New Affiliate Registration Data", msg.Subject)

	for _, label := range []string{"Name", "Instagram Handle", "Phone Number", "Email", "Address", "Submission Time"} {
		assert.Contains(t, msg.HTML, ">"+label+"<")
	}
	assert.Contains(t, msg.HTML, "Asha &lt;Rao&gt;")
	assert.Contains(t, msg.HTML, "12 MG Road &amp; Sons, Pune")
	assert.NotContains(t, msg.HTML, "<Rao>")

	assert.Contains(t, msg.Text, "Name: Asha <Rao>")
	assert.Contains(t, msg.Text, "Submitted: 2024-03-09T08:35:07.042Z")
}

func TestSendBackup_PublishesAlert(t *testing.T) {
	var published *sns.PublishInput
	alerter := NewSNSAlerter(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			published = params
			return &sns.PublishOutput{}, nil
		},
	}, "arn:aws:sns:ap-south-1:123456789012:affiliate-alerts")

	handler := newTestHandler(t, &recordingTransport{}, alerter)
	require.NoError(t, handler.SendBackup(context.Background(), createTestPayload()))

	require.NotNil(t, published)
	assert.Equal(t, "arn:aws:sns:ap-south-1:123456789012:affiliate-alerts", *published.TopicArn)
	assert.Equal(t, "Backup: New Affiliate Registration", *published.Subject)
	assert.Contains(t, *published.Message, "asha@example.com")
}

func TestSendBackup_AlertFailureIsIgnored(t *testing.T) {
	alerter := NewSNSAlerter(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("AuthorizationError")
		},
	}, "arn:aws:sns:ap-south-1:123456789012:affiliate-alerts")

	handler := newTestHandler(t, &recordingTransport{}, alerter)
	assert.NoError(t, handler.SendBackup(context.Background(), createTestPayload()))
}

// ==========================
// SES Transport
// ==========================

func TestSESTransport(t *testing.T) {
	var input *ses.SendEmailInput
	transport := NewSESTransport(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			input = params
			return &ses.SendEmailOutput{}, nil
		},
	})

	handler := newTestHandler(t, transport, nil)
	require.NoError(t, handler.SendWelcome(context.Background(), "Asha Rao", "asha@example.com"))

	require.NotNil(t, input)
	assert.Equal(t, []string{"asha@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, `"Numour Family" <noreply@numour.com>`, *input.Source)
	assert.Equal(t, "Welcome to the Numour Family! 💜", *input.Message.Subject.Data)
	assert.Contains(t, *input.Message.Body.Html.Data, "Asha Rao")
}

func TestSESTransport_Error(t *testing.T) {
	transport := NewSESTransport(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	})

	err := newTestHandler(t, transport, nil).SendBackup(context.Background(), createTestPayload())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
}

// ==========================
// Templates
// ==========================

func TestRenderTemplate(t *testing.T) {
	data := map[string]interface{}{
		"name": "{{email}}",
		"year": 2024,
	}

	assert.Equal(t, "Hi {{email}} 2024 !", renderText("Hi {{name}} {{year}} {{missing}}!", data))
	assert.Equal(t, "a &lt;b&gt;", renderHTML("a {{v}}", map[string]interface{}{"v": "<b>"}))
	assert.Equal(t, "unterminated {{name", renderText("unterminated {{name", data))
}
