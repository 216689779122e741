package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnbalanced is returned when a posting event would produce entries whose
// debits and credits do not match. It indicates a programming error in the
// posting scheme rather than bad input.
var ErrUnbalanced = errors.New("ledger posting is not balanced")

// InvoiceIssued is posted once when an invoice is created.
type InvoiceIssued struct {
	InvoiceID uuid.UUID
	// Total is subtotal - discount + tax, the amount receivable.
	Total decimal.Decimal
	// Revenue is subtotal - discount, the amount recognized as earned.
	Revenue decimal.Decimal
}

// PaymentReceived is posted once per recorded payment.
type PaymentReceived struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
	Mode      PaymentMode
}

// Poster translates billing events into balanced double-entry postings.
// The account scheme is fixed: issuing an invoice debits Accounts Receivable
// for the total and credits Service Revenue for the earned amount, with any
// tax carried on Tax Payable so each event balances. Payments debit Cash or
// Bank and credit Accounts Receivable.
type Poster struct {
	entries LedgerRepository
}

func NewPoster(entries LedgerRepository) *Poster {
	return &Poster{entries: entries}
}

func (p *Poster) PostInvoiceIssued(ctx context.Context, ev InvoiceIssued) error {
	id := ev.InvoiceID
	entries := []*AccountingEntry{
		{InvoiceID: &id, Account: AccountReceivable, Debit: ev.Total, Credit: decimal.Zero},
		{InvoiceID: &id, Account: AccountRevenue, Debit: decimal.Zero, Credit: ev.Revenue},
	}
	if tax := ev.Total.Sub(ev.Revenue); tax.GreaterThan(decimal.Zero) {
		entries = append(entries, &AccountingEntry{
			InvoiceID: &id, Account: AccountTaxPayable, Debit: decimal.Zero, Credit: tax,
		})
	}
	return p.append(ctx, entries)
}

func (p *Poster) PostPaymentReceived(ctx context.Context, ev PaymentReceived) error {
	account := AccountBank
	if ev.Mode == ModeCash {
		account = AccountCash
	}
	id := ev.PaymentID
	return p.append(ctx, []*AccountingEntry{
		{PaymentID: &id, Account: account, Debit: ev.Amount, Credit: decimal.Zero},
		{PaymentID: &id, Account: AccountReceivable, Debit: decimal.Zero, Credit: ev.Amount},
	})
}

func (p *Poster) append(ctx context.Context, entries []*AccountingEntry) error {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	return p.entries.Append(ctx, entries)
}
