package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrDuplicateSlot is returned by Create when the database rejects the
	// insert on the doctor/timestamp uniqueness constraint. Callers re-read
	// the conflicting row to report it.
	ErrDuplicateSlot = errors.New("duplicate appointment slot")
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// FindConflict returns the non-cancelled appointment held by the doctor
	// at exactly the given instant, or ErrNotFound.
	FindConflict(ctx context.Context, doctorID uuid.UUID, at time.Time) (*Appointment, error)
	UpdateStatus(ctx context.Context, a *Appointment) error
	// ListDay returns appointments whose scheduled time falls on the given
	// UTC calendar day, optionally filtered to one doctor.
	ListDay(ctx context.Context, day time.Time, doctorID *uuid.UUID) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
