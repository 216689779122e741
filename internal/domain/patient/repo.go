package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patients. Every method is scoped to the tenant carried
// by ctx and fails with db.ErrTenantRequired when none is bound.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindByUHID(ctx context.Context, uhid string) (*Patient, error)
	FindByPhone(ctx context.Context, phone string) (*Patient, error)
	Search(ctx context.Context, q string, limit int) ([]*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
