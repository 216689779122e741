package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	items Repository
}

func NewService(items Repository) *Service {
	return &Service{items: items}
}

func (s *Service) Create(ctx context.Context, item *Item) error {
	if strings.TrimSpace(item.Code) == "" || strings.TrimSpace(item.Name) == "" {
		return ErrInvalidPayload
	}
	if item.Rate.IsNegative() {
		return ErrInvalidPayload
	}
	return s.items.Create(ctx, item)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.items.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Item, error) {
	return s.items.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	return s.items.List(ctx, limit, offset)
}
