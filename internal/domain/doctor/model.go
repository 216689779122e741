package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a tenant-scoped practitioner record, read-only from the billing
// and scheduling cores.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       *string   `db:"last_name" json:"last_name,omitempty"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
