package messaging

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	StatusPending MessageStatus = "PENDING"
	StatusSent    MessageStatus = "SENT"
	StatusFailed  MessageStatus = "FAILED"
)

// Channel is the delivery medium for a message.
type Channel string

const (
	ChannelSMS Channel = "sms"
)

// FailureMissingPhone is recorded when the patient has no phone on file.
const FailureMissingPhone = "missing_phone"

// MessageLog maps to the hms_message_log table. Every outbound notice gets a
// row regardless of delivery outcome.
type MessageLog struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	TenantID   string        `db:"tenant_id" json:"tenant_id"`
	PatientID  *uuid.UUID    `db:"patient_id" json:"patient_id,omitempty"`
	InvoiceID  *uuid.UUID    `db:"invoice_id" json:"invoice_id,omitempty"`
	Channel    Channel       `db:"channel" json:"channel"`
	Recipient  string        `db:"recipient" json:"recipient"`
	Body       string        `db:"body" json:"body"`
	Status     MessageStatus `db:"status" json:"status"`
	ProviderID *string       `db:"provider_id" json:"provider_id,omitempty"`
	Error      *string       `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}
