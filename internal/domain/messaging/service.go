package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/sharelink"
)

// InvoiceView is the slice of an invoice a notice needs.
type InvoiceView struct {
	ID        uuid.UUID
	TenantID  string
	PatientID uuid.UUID
	InvoiceNo string
	Total     decimal.Decimal
}

// InvoiceSource resolves invoices from the billing domain.
type InvoiceSource interface {
	InvoiceFor(ctx context.Context, id uuid.UUID) (*InvoiceView, error)
}

// Contact is the slice of a patient a notice needs.
type Contact struct {
	Name  string
	Phone *string
}

// ContactSource resolves patient contact details.
type ContactSource interface {
	ContactFor(ctx context.Context, id uuid.UUID) (*Contact, error)
}

type Service struct {
	repo       Repository
	dispatcher Dispatcher
	invoices   InvoiceSource
	contacts   ContactSource
	links      sharelink.Signer
	baseURL    string
}

func NewService(repo Repository, dispatcher Dispatcher, invoices InvoiceSource,
	contacts ContactSource, links sharelink.Signer, baseURL string) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		invoices:   invoices,
		contacts:   contacts,
		links:      links,
		baseURL:    baseURL,
	}
}

// SendInvoiceNotice renders an SMS with a signed view link for the invoice
// and dispatches it to the patient's phone. Every attempt is logged; a
// patient without a phone produces a FAILED row rather than an error.
func (s *Service) SendInvoiceNotice(ctx context.Context, invoiceID uuid.UUID) (*MessageLog, error) {
	inv, err := s.invoices.InvoiceFor(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	contact, err := s.contacts.ContactFor(ctx, inv.PatientID)
	if err != nil {
		return nil, err
	}

	id := inv.ID
	patientID := inv.PatientID
	m := &MessageLog{
		PatientID: &patientID,
		InvoiceID: &id,
		Channel:   ChannelSMS,
		Status:    StatusPending,
	}

	if contact.Phone == nil || *contact.Phone == "" {
		reason := FailureMissingPhone
		m.Status = StatusFailed
		m.Error = &reason
		if err := s.repo.Create(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}
	m.Recipient = *contact.Phone

	token, err := s.links.SignInvoiceLink(inv.ID.String(), inv.TenantID)
	if err != nil {
		return nil, err
	}
	m.Body = fmt.Sprintf("Dear %s, your invoice %s for %s is ready. View it at %s/public/invoices/view?token=%s",
		contact.Name, inv.InvoiceNo, inv.Total.StringFixed(2), s.baseURL, token)

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	providerID, err := s.dispatcher.Dispatch(ctx, m)
	if err != nil {
		reason := err.Error()
		m.Status = StatusFailed
		m.Error = &reason
	} else {
		m.Status = StatusSent
		m.ProviderID = &providerID
	}
	if err := s.repo.UpdateOutcome(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*MessageLog, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}
