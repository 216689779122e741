package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("catalog item not found")
	ErrInvalidPayload = errors.New("invalid catalog item payload")
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	GetByCode(ctx context.Context, code string) (*Item, error)
	List(ctx context.Context, limit, offset int) ([]*Item, int, error)
}
