package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("invoice not found")

// InvoiceRepository persists invoices together with their line items.
type InvoiceRepository interface {
	// Create inserts the invoice and all of its items.
	Create(ctx context.Context, inv *Invoice) error
	// GetByID returns the invoice with its items loaded.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// GetByIDForUpdate locks the invoice row for the duration of the
	// surrounding transaction. Items are not loaded.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) error
	List(ctx context.Context, limit, offset int) ([]*Invoice, int, error)
}

// PaymentRepository persists payments against invoices.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	// SumByInvoice returns the total amount paid against an invoice.
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
}

// LedgerRepository is the append-only store of accounting entries.
type LedgerRepository interface {
	Append(ctx context.Context, entries []*AccountingEntry) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*AccountingEntry, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*AccountingEntry, error)
}
