// internal/workers/registration/send-notification/alert.go
package sendnotification

import (
	"context"
	"fmt"

	"affiliate-registration/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSService is the subset of the SNS client used here.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSAlerter publishes a one-line operator alert whenever a backup email
// goes out.
type SNSAlerter struct {
	client   SNSService
	topicARN string
}

func NewSNSAlerter(client SNSService, topicARN string) *SNSAlerter {
	return &SNSAlerter{client: client, topicARN: topicARN}
}

func (a *SNSAlerter) Alert(ctx context.Context, payload models.NotificationPayload) error {
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		// SNS subjects must be ASCII
		Subject: aws.String(alertSubject),
		Message: aws.String(fmt.Sprintf(
			"Spreadsheet relay did not record affiliate %s <%s> (%s) submitted at %s; backup email sent.",
			payload.Name, payload.Email, payload.Instagram, payload.Timestamp,
		)),
	})
	return err
}
