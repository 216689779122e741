package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status values an appointment may hold. Transitions are unrestricted within
// this set; cancellation stamps CancelledAt once and never clears it.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Appointment maps to the hms_appointment table. A doctor holds at most one
// non-cancelled appointment per exact timestamp within a tenant.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Reason      *string    `db:"reason" json:"reason,omitempty"`
	Status      Status     `db:"status" json:"status"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
