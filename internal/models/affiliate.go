// internal/models/affiliate.go
package models

import "time"

// PayloadTimeFormat matches JavaScript's Date.toISOString output, which the
// spreadsheet script parses.
const PayloadTimeFormat = "2006-01-02T15:04:05.000Z"

// RegistrationRequest is a submission that passed validation.
type RegistrationRequest struct {
	Name      string `json:"name"`
	Instagram string `json:"instagram"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// RegistrationRecord is a stored registration. Records are append-only.
type RegistrationRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Instagram string    `json:"instagram"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationPayload is the flat document posted to the spreadsheet webhook
// and rendered into the backup email.
type NotificationPayload struct {
	Name      string `json:"name"`
	Instagram string `json:"instagram"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Timestamp string `json:"timestamp"`
}

// AffiliateSummary is the subset of a record echoed back to the registrant.
type AffiliateSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewRecord(req *RegistrationRequest, id int64, createdAt time.Time) *RegistrationRecord {
	return &RegistrationRecord{
		ID:        id,
		Name:      req.Name,
		Instagram: req.Instagram,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		CreatedAt: createdAt.UTC(),
	}
}

func (r *RegistrationRecord) Payload() NotificationPayload {
	return NotificationPayload{
		Name:      r.Name,
		Instagram: r.Instagram,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		Timestamp: FormatTimestamp(r.CreatedAt),
	}
}

func (r *RegistrationRecord) Summary() AffiliateSummary {
	return AffiliateSummary{ID: r.ID, Name: r.Name, Email: r.Email}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(PayloadTimeFormat)
}
