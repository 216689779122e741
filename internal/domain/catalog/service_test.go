package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockRepo struct {
	items map[uuid.UUID]*Item
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Item)}
}

func (m *mockRepo) Create(_ context.Context, item *Item) error {
	item.ID = uuid.New()
	item.TenantID = "clinic_a"
	item.CreatedAt = time.Now()
	m.items[item.ID] = item
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*Item, error) {
	for _, item := range m.items {
		if item.Code == code {
			return item, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Item, int, error) {
	var out []*Item
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, len(out), nil
}

func TestCreateItem(t *testing.T) {
	svc := NewService(newMockRepo())
	item := &Item{Code: "CONSULT", Name: "Consultation", Rate: decimal.NewFromInt(500)}
	if err := svc.Create(context.Background(), item); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ID == uuid.Nil {
		t.Error("id not assigned")
	}

	got, err := svc.GetByCode(context.Background(), "CONSULT")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if !got.Rate.Equal(decimal.NewFromInt(500)) {
		t.Errorf("rate = %s, want 500", got.Rate)
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	cases := []struct {
		name string
		item *Item
	}{
		{"empty code", &Item{Name: "X", Rate: decimal.NewFromInt(10)}},
		{"blank name", &Item{Code: "X", Name: "   ", Rate: decimal.NewFromInt(10)}},
		{"negative rate", &Item{Code: "X", Name: "X", Rate: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		if err := svc.Create(ctx, tc.item); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("%s: err = %v, want ErrInvalidPayload", tc.name, err)
		}
	}
}

func TestGetUnknownItem(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestZeroRateItemAllowed(t *testing.T) {
	svc := NewService(newMockRepo())
	item := &Item{Code: "CAMP", Name: "Free Camp Checkup", Rate: decimal.Zero}
	if err := svc.Create(context.Background(), item); err != nil {
		t.Errorf("zero rate rejected: %v", err)
	}
}
