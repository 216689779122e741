package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("patient not found")
	ErrInvalidPayload = errors.New("invalid patient payload")
)

// CreateInput carries the fields accepted when registering a patient.
type CreateInput struct {
	UHID      string     `json:"uhid"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Gender    string     `json:"gender"`
	DOB       *time.Time `json:"dob"`
	Address   string     `json:"address"`
}

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// FindOrCreate registers a patient, collapsing to the existing record when the
// tenant already has one with the same UHID or phone. The boolean reports
// whether a new row was created.
func (s *Service) FindOrCreate(ctx context.Context, in CreateInput) (*Patient, bool, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, false, ErrInvalidPayload
	}

	if uhid := strings.TrimSpace(in.UHID); uhid != "" {
		existing, err := s.patients.FindByUHID(ctx, uhid)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		existing, err := s.patients.FindByPhone(ctx, phone)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	p := &Patient{FirstName: strings.TrimSpace(in.FirstName)}
	if v := strings.TrimSpace(in.UHID); v != "" {
		p.UHID = &v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		p.LastName = &v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		p.Phone = &v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		p.Email = &v
	}
	if v := strings.TrimSpace(in.Gender); v != "" {
		p.Gender = &v
	}
	if v := strings.TrimSpace(in.Address); v != "" {
		p.Address = &v
	}
	p.DOB = in.DOB

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// Exists reports whether a patient exists in the current tenant.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.patients.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Search(ctx context.Context, q string, limit int) ([]*Patient, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrInvalidPayload
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.patients.Search(ctx, q, limit)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
