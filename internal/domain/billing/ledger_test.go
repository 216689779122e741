package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestPosterInvoiceIssuedWithoutTax(t *testing.T) {
	repo := &mockLedgerRepo{}
	p := NewPoster(repo)
	id := uuid.New()
	err := p.PostInvoiceIssued(context.Background(), InvoiceIssued{
		InvoiceID: id,
		Total:     decimal.NewFromInt(1200),
		Revenue:   decimal.NewFromInt(1200),
	})
	if err != nil {
		t.Fatalf("PostInvoiceIssued: %v", err)
	}
	entries, _ := repo.ListByInvoice(context.Background(), id)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 when tax is zero", len(entries))
	}
}

func TestPosterInvoiceIssuedCarriesTax(t *testing.T) {
	repo := &mockLedgerRepo{}
	p := NewPoster(repo)
	id := uuid.New()
	err := p.PostInvoiceIssued(context.Background(), InvoiceIssued{
		InvoiceID: id,
		Total:     decimal.NewFromInt(1236),
		Revenue:   decimal.NewFromInt(1200),
	})
	if err != nil {
		t.Fatalf("PostInvoiceIssued: %v", err)
	}
	entries, _ := repo.ListByInvoice(context.Background(), id)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 with tax", len(entries))
	}
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	if !debit.Equal(credit) {
		t.Errorf("debit %s != credit %s", debit, credit)
	}
}

func TestStatusFor(t *testing.T) {
	total := decimal.NewFromInt(1236)
	cases := []struct {
		paid string
		want InvoiceStatus
	}{
		{"0", StatusUnpaid},
		{"0.01", StatusPartial},
		{"1235.99", StatusPartial},
		{"1236", StatusPaid},
		{"2000", StatusPaid},
	}
	for _, tc := range cases {
		if got := StatusFor(total, dec(tc.paid)); got != tc.want {
			t.Errorf("StatusFor(1236, %s) = %s, want %s", tc.paid, got, tc.want)
		}
	}
}
