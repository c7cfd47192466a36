// internal/models/delivery.go
package models

// DeliveryJob is the unit of work handed to a dispatcher once a record is
// stored: relay, notify and mirror.
type DeliveryJob struct {
	ID         string              `json:"id"`
	Record     RegistrationRecord  `json:"record"`
	Payload    NotificationPayload `json:"payload"`
	EnqueuedAt string              `json:"enqueuedAt"`
}

// EmailMessage is a rendered email ready for a transport.
type EmailMessage struct {
	FromEmail string
	FromName  string
	To        string
	ToName    string
	Subject   string
	Text      string
	HTML      string
}
