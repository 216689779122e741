package billing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/pkg/money"
)

var (
	ErrInvalidPayload  = errors.New("invalid billing payload")
	ErrPatientNotFound = errors.New("patient not found")
)

// PatientDirectory is the slice of the patient domain billing depends on.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CatalogLine carries the defaults a catalog service contributes to an
// invoice line that references it.
type CatalogLine struct {
	Description string
	Rate        decimal.Decimal
}

// ServiceCatalog resolves catalog references on invoice lines.
type ServiceCatalog interface {
	Lookup(ctx context.Context, id uuid.UUID) (*CatalogLine, error)
}

// TxRunner executes fn inside a tenant-scoped database transaction.
type TxRunner interface {
	InTenantTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	tx       TxRunner
	invoices InvoiceRepository
	payments PaymentRepository
	ledger   LedgerRepository
	poster   *Poster
	patients PatientDirectory
	catalog  ServiceCatalog
}

func NewService(tx TxRunner, invoices InvoiceRepository, payments PaymentRepository,
	ledger LedgerRepository, patients PatientDirectory, catalog ServiceCatalog) *Service {
	return &Service{
		tx:       tx,
		invoices: invoices,
		payments: payments,
		ledger:   ledger,
		poster:   NewPoster(ledger),
		patients: patients,
		catalog:  catalog,
	}
}

// LineInput is one requested invoice line. Either ServiceID or Description
// must be set; Qty defaults to 1 and Rate defaults from the catalog when the
// line references a service.
type LineInput struct {
	ServiceID   *uuid.UUID      `json:"service_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	Rate        decimal.Decimal `json:"rate"`
}

type CreateInvoiceInput struct {
	PatientID uuid.UUID       `json:"patient_id"`
	Items     []LineInput     `json:"items"`
	Discount  decimal.Decimal `json:"discount"`
	Tax       decimal.Decimal `json:"tax"`
}

// CreateInvoice builds an invoice from the requested lines, persists it with
// its items and posts the issue event to the ledger, all in one transaction.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error) {
	if in.PatientID == uuid.Nil || len(in.Items) == 0 {
		return nil, ErrInvalidPayload
	}
	var inv *Invoice
	err := s.tx.InTenantTx(ctx, func(ctx context.Context) error {
		ok, err := s.patients.Exists(ctx, in.PatientID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPatientNotFound
		}

		items := make([]*InvoiceItem, 0, len(in.Items))
		amounts := make([]decimal.Decimal, 0, len(in.Items))
		for _, li := range in.Items {
			it, err := s.resolveLine(ctx, li)
			if err != nil {
				return err
			}
			items = append(items, it)
			amounts = append(amounts, it.Amount)
		}

		subtotal := money.Subtotal(amounts)
		total, err := money.Total(subtotal, in.Discount, in.Tax)
		if err != nil {
			return err
		}

		inv = &Invoice{
			PatientID: in.PatientID,
			InvoiceNo: newInvoiceNo(time.Now().UTC()),
			Subtotal:  subtotal.Round(money.Places),
			Discount:  in.Discount,
			Tax:       in.Tax,
			Total:     total,
			Status:    StatusUnpaid,
			Items:     items,
		}
		if err := s.invoices.Create(ctx, inv); err != nil {
			return err
		}
		return s.poster.PostInvoiceIssued(ctx, InvoiceIssued{
			InvoiceID: inv.ID,
			Total:     inv.Total,
			Revenue:   inv.Subtotal.Sub(inv.Discount).Round(money.Places),
		})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) resolveLine(ctx context.Context, li LineInput) (*InvoiceItem, error) {
	qty := li.Qty
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	desc := strings.TrimSpace(li.Description)
	rate := li.Rate
	if li.ServiceID != nil {
		cl, err := s.catalog.Lookup(ctx, *li.ServiceID)
		if err != nil {
			return nil, ErrInvalidPayload
		}
		if desc == "" {
			desc = cl.Description
		}
		if rate.IsZero() {
			rate = cl.Rate
		}
	}
	if desc == "" {
		return nil, ErrInvalidPayload
	}
	amount, err := money.Amount(qty, rate)
	if err != nil {
		return nil, err
	}
	return &InvoiceItem{
		ServiceID:   li.ServiceID,
		Description: desc,
		Qty:         qty,
		Rate:        rate,
		Amount:      amount,
	}, nil
}

// newInvoiceNo produces INV-YYYY-MM-DD-NNNN with a random 4-digit suffix.
// Uniqueness is not guaranteed; the number is a human-facing reference, the
// UUID is the identity.
func newInvoiceNo(now time.Time) string {
	return fmt.Sprintf("INV-%s-%d", now.Format("2006-01-02"), 1000+rand.Intn(9000))
}

type RecordPaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"mode"`
	Reference *string         `json:"reference,omitempty"`
}

// RecordPayment records a payment against an invoice, posts it to the ledger
// and recomputes the invoice status, all under a row lock on the invoice so
// concurrent payments serialize and the final status reflects every payment.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, in RecordPaymentInput) (*Payment, error) {
	if !in.Amount.GreaterThan(decimal.Zero) {
		return nil, money.ErrInvalidAmount
	}
	mode, err := normalizeMode(in.Mode)
	if err != nil {
		return nil, err
	}
	var p *Payment
	err = s.tx.InTenantTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		p = &Payment{
			InvoiceID: inv.ID,
			Amount:    in.Amount.Round(money.Places),
			Mode:      mode,
			Reference: in.Reference,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}
		if err := s.poster.PostPaymentReceived(ctx, PaymentReceived{
			PaymentID: p.ID,
			Amount:    p.Amount,
			Mode:      p.Mode,
		}); err != nil {
			return err
		}
		paid, err := s.payments.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		return s.invoices.UpdateStatus(ctx, inv.ID, StatusFor(inv.Total, paid))
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func normalizeMode(raw string) (PaymentMode, error) {
	switch m := PaymentMode(strings.ToUpper(strings.TrimSpace(raw))); m {
	case "":
		return ModeOther, nil
	case ModeCash, ModeBank, ModeOther:
		return m, nil
	default:
		return "", ErrInvalidPayload
	}
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoices.List(ctx, limit, offset)
}

func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.payments.ListByInvoice(ctx, invoiceID)
}

// ListEntries returns the ledger entries posted for an invoice, including
// those of its payments.
func (s *Service) ListEntries(ctx context.Context, invoiceID uuid.UUID) ([]*AccountingEntry, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	pays, err := s.payments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range pays {
		pe, err := s.ledger.ListByPayment(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, pe...)
	}
	return entries, nil
}
