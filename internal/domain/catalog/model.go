package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a tenant-scoped billable catalog entry. Invoice lines referencing an
// item default their description and rate from it.
type Item struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Rate      decimal.Decimal `db:"rate" json:"rate"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
