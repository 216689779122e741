package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("message not found")

type Repository interface {
	Create(ctx context.Context, m *MessageLog) error
	// UpdateOutcome moves a message out of PENDING, recording the provider
	// id on success or the failure reason otherwise.
	UpdateOutcome(ctx context.Context, m *MessageLog) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*MessageLog, error)
}
