package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a tenant-scoped patient record. UHID and phone are natural keys:
// creation against an existing value returns the existing record.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	TenantID  string     `db:"tenant_id" json:"tenant_id"`
	UHID      *string    `db:"uhid" json:"uhid,omitempty"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  *string    `db:"last_name" json:"last_name,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Gender    *string    `db:"gender" json:"gender,omitempty"`
	DOB       *time.Time `db:"dob" json:"dob,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
