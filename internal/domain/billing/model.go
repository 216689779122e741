package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is derived from the sum of recorded payments; it is the only
// mutable invoice field.
type InvoiceStatus string

const (
	StatusUnpaid  InvoiceStatus = "UNPAID"
	StatusPartial InvoiceStatus = "PARTIAL"
	StatusPaid    InvoiceStatus = "PAID"
)

// PaymentMode selects the debit account for a payment posting.
type PaymentMode string

const (
	ModeCash  PaymentMode = "CASH"
	ModeBank  PaymentMode = "BANK"
	ModeOther PaymentMode = "OTHER"
)

// Ledger account names used by the fixed posting scheme.
const (
	AccountReceivable = "Accounts Receivable"
	AccountRevenue    = "Service Revenue"
	AccountCash       = "Cash"
	AccountBank       = "Bank"
	AccountTaxPayable = "Tax Payable"
)

// Invoice maps to the hms_invoice table. Items are created atomically with
// the invoice and are immutable afterwards.
type Invoice struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	PatientID uuid.UUID       `db:"patient_id" json:"patient_id"`
	InvoiceNo string          `db:"invoice_no" json:"invoice_no"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount  decimal.Decimal `db:"discount" json:"discount"`
	Tax       decimal.Decimal `db:"tax" json:"tax"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Status    InvoiceStatus   `db:"status" json:"status"`
	Items     []*InvoiceItem  `db:"-" json:"items,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// InvoiceItem maps to the hms_invoice_item table.
type InvoiceItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	InvoiceID   uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	ServiceID   *uuid.UUID      `db:"service_id" json:"service_id,omitempty"`
	Description string          `db:"description" json:"description"`
	Qty         decimal.Decimal `db:"qty" json:"qty"`
	Rate        decimal.Decimal `db:"rate" json:"rate"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}

// Payment maps to the hms_payment table. Immutable once created.
type Payment struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	InvoiceID uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Mode      PaymentMode     `db:"mode" json:"mode"`
	Reference *string         `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// AccountingEntry maps to the hms_accounting_entry table. Entries are
// append-only and reference either an invoice or a payment, never both.
type AccountingEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	InvoiceID *uuid.UUID      `db:"invoice_id" json:"invoice_id,omitempty"`
	PaymentID *uuid.UUID      `db:"payment_id" json:"payment_id,omitempty"`
	Account   string          `db:"account" json:"account"`
	Debit     decimal.Decimal `db:"debit" json:"debit"`
	Credit    decimal.Decimal `db:"credit" json:"credit"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// StatusFor derives the payment status from the amount paid so far against
// the invoice total.
func StatusFor(total, paid decimal.Decimal) InvoiceStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.GreaterThan(decimal.Zero):
		return StatusPartial
	default:
		return StatusUnpaid
	}
}
