package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPayload = errors.New("invalid appointment payload")
	ErrInvalidDate    = errors.New("invalid appointment date")
	ErrInvalidStatus  = errors.New("invalid appointment status")
)

// SlotTakenError reports a booking collision and carries the appointment
// already holding the slot.
type SlotTakenError struct {
	Conflict *Appointment
}

func (e *SlotTakenError) Error() string {
	return fmt.Sprintf("doctor %s already booked at %s",
		e.Conflict.DoctorID, e.Conflict.ScheduledAt.Format(time.RFC3339))
}

// TxRunner executes fn inside a tenant-scoped database transaction.
type TxRunner interface {
	InTenantTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	tx    TxRunner
	repo  Repository
	clock func() time.Time
}

func NewService(tx TxRunner, repo Repository) *Service {
	return &Service{tx: tx, repo: repo, clock: time.Now}
}

type BookInput struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      *string   `json:"reason,omitempty"`
}

// Book creates an appointment unless the doctor already holds a non-cancelled
// appointment at the exact same instant. The check-then-insert race is closed
// by a partial unique index; losing the race reports the same conflict as the
// explicit check.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil || in.DoctorID == uuid.Nil {
		return nil, ErrInvalidPayload
	}
	if in.ScheduledAt.IsZero() {
		return nil, ErrInvalidDate
	}
	at := in.ScheduledAt.UTC()

	var a *Appointment
	err := s.tx.InTenantTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindConflict(ctx, in.DoctorID, at)
		if err == nil {
			return &SlotTakenError{Conflict: existing}
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		a = &Appointment{
			PatientID:   in.PatientID,
			DoctorID:    in.DoctorID,
			ScheduledAt: at,
			Reason:      in.Reason,
			Status:      StatusScheduled,
		}
		return s.repo.Create(ctx, a)
	})
	if errors.Is(err, ErrDuplicateSlot) {
		// Lost the race to a concurrent booking; report the winner.
		if existing, ferr := s.repo.FindConflict(ctx, in.DoctorID, at); ferr == nil {
			return nil, &SlotTakenError{Conflict: existing}
		}
		return nil, &SlotTakenError{Conflict: &Appointment{DoctorID: in.DoctorID, ScheduledAt: at}}
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// SetStatus moves an appointment to the given status. Entering cancelled
// stamps CancelledAt if not already set; leaving cancelled keeps the stamp as
// a record that a cancellation happened.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, raw string) (*Appointment, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	var a *Appointment
	err := s.tx.InTenantTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		a.Status = status
		if status == StatusCancelled && a.CancelledAt == nil {
			now := s.clock().UTC()
			a.CancelledAt = &now
		}
		return s.repo.UpdateStatus(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Day lists appointments on the given UTC calendar day, optionally for one
// doctor.
func (s *Service) Day(ctx context.Context, day time.Time, doctorID *uuid.UUID) ([]*Appointment, error) {
	if day.IsZero() {
		return nil, ErrInvalidDate
	}
	return s.repo.ListDay(ctx, day.UTC(), doctorID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
