// internal/workers/registration/send-notification/ses.go
package sendnotification

import (
	"context"
	"net/mail"

	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the subset of the SES client used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESTransport struct {
	client SESService
}

func NewSESTransport(client SESService) *SESTransport {
	return &SESTransport{client: client}
}

func (t *SESTransport) Name() string { return config.TransportSES }

func (t *SESTransport) Send(ctx context.Context, msg *models.EmailMessage) error {
	from := mail.Address{Name: msg.FromName, Address: msg.FromEmail}

	_, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(from.String()),
	})
	return err
}
